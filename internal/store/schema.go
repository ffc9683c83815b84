package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS report_jobs (
	job_id          TEXT PRIMARY KEY,
	report_type     TEXT NOT NULL,
	start_date      TEXT NOT NULL,
	end_date        TEXT NOT NULL,
	include_charts  BOOLEAN NOT NULL DEFAULT TRUE,
	include_summary BOOLEAN NOT NULL DEFAULT TRUE,
	credential      TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	progress        INTEGER NOT NULL DEFAULT 0,
	error_message   TEXT,
	created_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS report_results (
	job_id    TEXT PRIMARY KEY REFERENCES report_jobs (job_id) ON DELETE CASCADE,
	content   BYTEA NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_report_jobs_created_at ON report_jobs (created_at);
`

// EnsureSchema creates the job and result tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure report schema: %w", err)
	}
	return nil
}
