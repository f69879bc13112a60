// Package history records the outcome of every attempted notification
// delivery for operator auditing. History is write-only as far as the
// monitor is concerned: it is never read back to seed tracker state.
package history

import "time"

// Delivery outcome statuses.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Record captures one delivery attempt to one destination.
type Record struct {
	CycleID    string    `json:"cycle_id"`
	TargetKey  string    `json:"target_key"`
	RevisionID string    `json:"revision_id"`
	GroupID    string    `json:"group_id"`
	Platform   string    `json:"platform"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Recorder persists delivery records.
type Recorder interface {
	Record(rec Record) error
	Close() error
}

// NoopRecorder discards all records.
type NoopRecorder struct{}

// NewNoopRecorder creates a recorder that does nothing.
func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

// Record discards the record.
func (r *NoopRecorder) Record(Record) error { return nil }

// Close is a no-op.
func (r *NoopRecorder) Close() error { return nil }
