// Package confirmlog defines the domain types for the confirmation audit log.
//
// The log is a durable trail of every state transition an order confirmation
// pipeline goes through. It serves two purposes:
//
//  1. Observability: you can query the DB to see exactly where a confirmation
//     is (or was) and correlate it with a distributed trace via the trace_id
//     field.
//
//  2. Recovery: on restart, the application can read the log and find
//     confirmations that were in-flight when the process crashed.
package confirmlog

import "time"

// Status represents the lifecycle state of a confirmation pipeline run.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// Entry is a single row in the confirmation log.
// It captures a point-in-time snapshot of a pipeline run.
type Entry struct {
	// PipelineID identifies the run. Typically the order ID so the log can
	// be joined with business data.
	PipelineID string

	// Status is the current lifecycle state.
	Status Status

	// CurrentStep is the name of the step that was just executed or failed.
	CurrentStep string

	// Payload is the JSON-serialised input that started the run.
	// Stored once at creation so the run can be inspected from the log alone.
	Payload string

	// ErrorMessages accumulates failure details, one per failed step.
	// Stored as a JSON array: ["step X failed: ...", "compensation of Y failed: ..."]
	ErrorMessages string

	// TraceID is the W3C trace ID extracted from the OpenTelemetry span that
	// was active when this entry was written.
	TraceID string

	// SpanID is the specific span within the trace.
	SpanID string

	// UpdatedAt is the wall-clock time of this entry.
	UpdatedAt time.Time
}
