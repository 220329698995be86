package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/shopkit/internal/order/confirmlog"
)

// recordingStep appends its name to a shared journal on execute and
// compensate so tests can assert ordering.
type recordingStep struct {
	name       string
	journal    *[]string
	execErr    error
	compensErr error
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Execute(context.Context) error {
	*s.journal = append(*s.journal, "exec:"+s.name)
	return s.execErr
}

func (s *recordingStep) Compensate(context.Context) error {
	*s.journal = append(*s.journal, "comp:"+s.name)
	return s.compensErr
}

// memoryLog collects entries instead of writing them to SQLite.
type memoryLog struct {
	mu      sync.Mutex
	entries []*confirmlog.Entry
}

func (m *memoryLog) Save(_ context.Context, entry *confirmlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLog) statuses() []confirmlog.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]confirmlog.Status, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Status)
	}
	return out
}

func TestRun_ExecutesInDeclaredOrder(t *testing.T) {
	var journal []string
	steps := []Step{
		&recordingStep{name: "first", journal: &journal},
		&recordingStep{name: "second", journal: &journal},
		&recordingStep{name: "third", journal: &journal},
	}

	err := New("order-1", steps, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"exec:first", "exec:second", "exec:third"}, journal)
}

func TestRun_CompensatesInReverseOrder(t *testing.T) {
	var journal []string
	stepErr := errors.New("third step failed")
	steps := []Step{
		&recordingStep{name: "first", journal: &journal},
		&recordingStep{name: "second", journal: &journal},
		&recordingStep{name: "third", journal: &journal, execErr: stepErr},
	}

	err := New("order-1", steps, nil).Run(context.Background())
	assert.ErrorIs(t, err, stepErr)
	assert.Equal(t, []string{
		"exec:first", "exec:second", "exec:third",
		"comp:second", "comp:first",
	}, journal)
}

func TestRun_CompensationErrorDoesNotStopRollback(t *testing.T) {
	var journal []string
	steps := []Step{
		&recordingStep{name: "first", journal: &journal},
		&recordingStep{name: "second", journal: &journal, compensErr: errors.New("compensation broke")},
		&recordingStep{name: "third", journal: &journal, execErr: errors.New("boom")},
	}

	err := New("order-1", steps, nil).Run(context.Background())
	require.Error(t, err)
	// "first" is still compensated even though "second"'s compensation failed.
	assert.Contains(t, journal, "comp:first")
}

func TestRun_RecordsLifecycle(t *testing.T) {
	var journal []string
	log := &memoryLog{}
	steps := []Step{
		&recordingStep{name: "first", journal: &journal},
		&recordingStep{name: "second", journal: &journal},
	}

	require.NoError(t, New("order-1", steps, log).Run(context.Background()))
	assert.Equal(t, []confirmlog.Status{
		confirmlog.StatusStarted,
		confirmlog.StatusStepDone,
		confirmlog.StatusStepDone,
		confirmlog.StatusCompleted,
	}, log.statuses())
	assert.Equal(t, "order-1", log.entries[0].PipelineID)
}

func TestRun_RecordsFailure(t *testing.T) {
	var journal []string
	log := &memoryLog{}
	steps := []Step{
		&recordingStep{name: "first", journal: &journal},
		&recordingStep{name: "second", journal: &journal, execErr: errors.New("boom")},
	}

	require.Error(t, New("order-1", steps, log).Run(context.Background()))
	assert.Equal(t, []confirmlog.Status{
		confirmlog.StatusStarted,
		confirmlog.StatusStepDone,
		confirmlog.StatusCompensating,
		confirmlog.StatusFailed,
	}, log.statuses())

	last := log.entries[len(log.entries)-1]
	assert.Equal(t, "second", last.CurrentStep)
	assert.Contains(t, last.ErrorMessages, "step second failed")
}

func TestRun_NilLogIsSafe(t *testing.T) {
	var journal []string
	steps := []Step{&recordingStep{name: "only", journal: &journal}}

	assert.NoError(t, New("order-1", steps, nil).Run(context.Background()))
}

func TestRun_NoSteps(t *testing.T) {
	log := &memoryLog{}
	require.NoError(t, New("order-1", nil, log).Run(context.Background()))
	assert.Equal(t, []confirmlog.Status{
		confirmlog.StatusStarted,
		confirmlog.StatusCompleted,
	}, log.statuses())
}
