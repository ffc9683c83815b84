package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fleetify/report-service/internal/domain"
)

// PostgresJobStore backs the JobStore interface with a shared database so
// several service instances can see the same jobs. Consumer and gateway logic
// is unchanged between this and the in-memory store.
type PostgresJobStore struct {
	db *sqlx.DB
}

// NewPostgresJobStore creates a job store over an existing connection pool.
func NewPostgresJobStore(db *sqlx.DB) *PostgresJobStore {
	return &PostgresJobStore{db: db}
}

type jobRow struct {
	JobID          string         `db:"job_id"`
	ReportType     string         `db:"report_type"`
	StartDate      string         `db:"start_date"`
	EndDate        string         `db:"end_date"`
	IncludeCharts  bool           `db:"include_charts"`
	IncludeSummary bool           `db:"include_summary"`
	Credential     string         `db:"credential"`
	Status         string         `db:"status"`
	Progress       int            `db:"progress"`
	ErrorMessage   sql.NullString `db:"error_message"`
	CreatedAt      time.Time      `db:"created_at"`
	CompletedAt    sql.NullTime   `db:"completed_at"`
}

func (r jobRow) toDomain() *domain.ReportJob {
	job := &domain.ReportJob{
		ID:   r.JobID,
		Type: domain.ReportType(r.ReportType),
		Params: domain.Parameters{
			StartDate:      r.StartDate,
			EndDate:        r.EndDate,
			IncludeCharts:  r.IncludeCharts,
			IncludeSummary: r.IncludeSummary,
		},
		Credential: r.Credential,
		Status:     domain.JobStatus(r.Status),
		Progress:   r.Progress,
		CreatedAt:  r.CreatedAt,
	}
	if r.ErrorMessage.Valid {
		job.ErrorMessage = r.ErrorMessage.String
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		job.CompletedAt = &t
	}
	return job
}

func (s *PostgresJobStore) Create(ctx context.Context, job *domain.ReportJob) error {
	query := `
		INSERT INTO report_jobs (
			job_id, report_type, start_date, end_date,
			include_charts, include_summary, credential,
			status, progress, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		string(job.Type),
		job.Params.StartDate,
		job.Params.EndDate,
		job.Params.IncludeCharts,
		job.Params.IncludeSummary,
		job.Credential,
		string(job.Status),
		job.Progress,
		job.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrJobExists
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *PostgresJobStore) Get(ctx context.Context, jobID string) (*domain.ReportJob, error) {
	query := `
		SELECT
			job_id, report_type, start_date, end_date,
			include_charts, include_summary, credential,
			status, progress, error_message, created_at, completed_at
		FROM report_jobs
		WHERE job_id = $1
	`

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain(), nil
}

func (s *PostgresJobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errorMessage string) error {
	// The WHERE clause encodes the state machine: terminal rows never match,
	// so updates against them are no-ops, and completed_at is written only
	// on the first terminal transition.
	query := `
		UPDATE report_jobs
		SET status = $1,
		    progress = CASE
		        WHEN $1 = 'COMPLETED' THEN 100
		        WHEN $1 = 'FAILED' THEN progress
		        ELSE GREATEST(progress, $2)
		    END,
		    error_message = NULLIF($3, ''),
		    completed_at = CASE
		        WHEN $1 IN ('COMPLETED', 'FAILED') AND completed_at IS NULL THEN NOW()
		        ELSE completed_at
		    END
		WHERE job_id = $4
		  AND status NOT IN ('COMPLETED', 'FAILED')
		  AND (
		        (status = 'PENDING' AND $1 IN ('PROCESSING', 'FAILED'))
		     OR (status = 'PROCESSING' AND $1 IN ('PROCESSING', 'COMPLETED', 'FAILED'))
		  )
	`

	res, err := s.db.ExecContext(ctx, query, string(status), progress, errorMessage, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// Either the job does not exist or the transition is a no-op.
		var exists bool
		if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM report_jobs WHERE job_id = $1)`, jobID); err != nil {
			return fmt.Errorf("failed to check job existence: %w", err)
		}
		if !exists {
			return domain.ErrJobNotFound
		}
	}

	return nil
}

// PostgresResultStore backs the ResultStore interface with a bytea column.
type PostgresResultStore struct {
	db *sqlx.DB
}

// NewPostgresResultStore creates a result store over an existing pool.
func NewPostgresResultStore(db *sqlx.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

func (s *PostgresResultStore) Put(ctx context.Context, jobID string, data []byte) error {
	// Upsert keeps last-write-wins semantics on duplicate delivery.
	query := `
		INSERT INTO report_results (job_id, content, stored_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (job_id) DO UPDATE
		SET content = EXCLUDED.content, stored_at = EXCLUDED.stored_at
	`

	if _, err := s.db.ExecContext(ctx, query, jobID, data); err != nil {
		return fmt.Errorf("failed to store report result: %w", err)
	}
	return nil
}

func (s *PostgresResultStore) Get(ctx context.Context, jobID string) ([]byte, error) {
	var content []byte
	err := s.db.GetContext(ctx, &content, `SELECT content FROM report_results WHERE job_id = $1`, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get report result: %w", err)
	}
	return content, nil
}
