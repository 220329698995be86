package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/shopkit/internal/order/confirmlog"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "confirmlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSaveAndGetLatest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	started := confirmlog.NewEntry(ctx, "order-1", confirmlog.StatusStarted, "", `{"order_id":"order-1"}`, nil)
	require.NoError(t, repo.Save(ctx, started))

	stepDone := confirmlog.NewEntry(ctx, "order-1", confirmlog.StatusStepDone, "decrement_stock", "", nil)
	stepDone.UpdatedAt = started.UpdatedAt.Add(time.Millisecond)
	require.NoError(t, repo.Save(ctx, stepDone))

	latest, err := repo.GetLatest(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, confirmlog.StatusStepDone, latest.Status)
	assert.Equal(t, "decrement_stock", latest.CurrentStep)
	assert.Equal(t, "[]", latest.ErrorMessages)
}

func TestSave_AppendsRatherThanUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, status := range []confirmlog.Status{
		confirmlog.StatusStarted,
		confirmlog.StatusCompensating,
		confirmlog.StatusFailed,
	} {
		entry := confirmlog.NewEntry(ctx, "order-1", status, "decrement_stock", "", []string{"boom"})
		entry.UpdatedAt = base.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, repo.Save(ctx, entry))
	}

	latest, err := repo.GetLatest(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, confirmlog.StatusFailed, latest.Status)
	assert.Contains(t, latest.ErrorMessages, "boom")
}

func TestGetLatest_Missing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetLatest(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, confirmlog.ErrNotFound)
}
