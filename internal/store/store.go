package store

import (
	"context"

	"github.com/fleetify/report-service/internal/domain"
)

// JobStore is the sole source of truth for job status queries. Implementations
// must be safe for concurrent use and must expose consistent record snapshots
// to readers racing with writers.
type JobStore interface {
	// Create inserts a new record. The uuid generator guarantees fresh ids;
	// a duplicate id is reported as domain.ErrJobExists.
	Create(ctx context.Context, job *domain.ReportJob) error

	// Get returns a snapshot of the current record, or domain.ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*domain.ReportJob, error)

	// UpdateStatus applies a transition if it is forward-valid. Updates
	// against a terminal record are silent no-ops. CompletedAt is set on the
	// first transition into a terminal state. Progress never decreases while
	// the job is non-terminal.
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errorMessage string) error
}

// ResultStore holds completed report documents keyed by job id. Duplicate
// deliveries may overwrite a stored document; last write wins.
type ResultStore interface {
	Put(ctx context.Context, jobID string, data []byte) error

	// Get returns the stored bytes, or domain.ErrResultNotFound.
	Get(ctx context.Context, jobID string) ([]byte, error)
}
