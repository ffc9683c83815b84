package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job id is unknown to the job store.
	ErrJobNotFound = errors.New("job not found")

	// ErrResultNotFound is returned when no rendered document exists for a job.
	ErrResultNotFound = errors.New("report result not found")

	// ErrUnknownReportType is returned when a submission names a report type
	// outside the closed set. The job is rejected before a record is created.
	ErrUnknownReportType = errors.New("unknown report type")

	// ErrJobExists is returned when a job id is already present at creation.
	// The uuid generator makes this unreachable in practice.
	ErrJobExists = errors.New("job already exists")

	// ErrReportNotReady is returned on download of a job that has not
	// completed yet.
	ErrReportNotReady = errors.New("report not ready")

	// ErrEmptyDocument is returned when the renderer produces zero bytes.
	ErrEmptyDocument = errors.New("generated document is empty")
)
