// Package store persists optimization checkpoints and per-round traces.
package store

// Store defines checkpoint persistence. Implementations must be safe for
// concurrent use.
//
// Error conventions:
//   - ErrNotFound if the checkpoint doesn't exist (Load/Delete)
//   - wrapped errors with context for I/O or serialization failures
type Store interface {
	// SaveCheckpoint atomically saves the checkpoint for jobID, replacing any
	// earlier one.
	SaveCheckpoint(jobID string, checkpoint *Checkpoint) error

	// LoadCheckpoint returns the checkpoint for jobID or ErrNotFound.
	LoadCheckpoint(jobID string) (*Checkpoint, error)

	// ListCheckpoints returns metadata for every stored checkpoint.
	ListCheckpoints() ([]CheckpointInfo, error)

	// DeleteCheckpoint removes the checkpoint and everything stored alongside
	// it. Returns ErrNotFound if there is nothing to delete.
	DeleteCheckpoint(jobID string) error
}

// ErrNotFound is returned when a requested checkpoint does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing checkpoint error.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "checkpoint not found: " + e.JobID
	}
	return "checkpoint not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// TraceSink receives the per-round trace of one job.
type TraceSink interface {
	Write(entry TraceEntry) error
	Close() error
}

// Tracer is implemented by stores that also keep traces.
type Tracer interface {
	OpenTrace(jobID string) (TraceSink, error)
}
