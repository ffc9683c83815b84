package domain

import (
	"time"
)

// JobStatus is the lifecycle state of a report job.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether the status is final. Terminal jobs are immutable.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is forward-valid.
// The lifecycle is a DAG: PENDING -> PROCESSING -> {COMPLETED, FAILED}.
// PENDING -> FAILED covers publish failures at submission time.
// PROCESSING -> PROCESSING carries progress checkpoints.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusProcessing || next == StatusCompleted || next == StatusFailed
	case StatusCompleted, StatusFailed:
		return false
	default:
		return false
	}
}

// ReportType identifies one of the supported report kinds.
type ReportType string

const (
	ReportFleetSummary       ReportType = "fleet-summary"
	ReportVehicleUtilization ReportType = "vehicle-utilization"
	ReportCostAnalysis       ReportType = "cost-analysis"
	ReportTrips              ReportType = "trips"
)

// ParseReportType validates a report type received from a client.
func ParseReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case ReportFleetSummary, ReportVehicleUtilization, ReportCostAnalysis, ReportTrips:
		return ReportType(s), nil
	default:
		return "", ErrUnknownReportType
	}
}

// Parameters are the client-supplied report parameters. Immutable after
// submission.
type Parameters struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	IncludeCharts  bool   `json:"include_charts"`
	IncludeSummary bool   `json:"include_summary"`
}

// ReportJob is the unit of state for one report request. Records are updated
// by whole-record replacement in the store, never by in-place field mutation
// visible to readers.
type ReportJob struct {
	ID           string
	Type         ReportType
	Params       Parameters
	Credential   string
	Status       JobStatus
	Progress     int
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// JobDescriptor is the broker payload for one queued job.
type JobDescriptor struct {
	JobID      string     `json:"job_id"`
	ReportType string     `json:"report_type"`
	Parameters Parameters `json:"parameters"`
	Credential string     `json:"credential"`
}

// DateRange is the reporting period forwarded to the data provider.
type DateRange struct {
	Start string
	End   string
}

// Range extracts the reporting period from the parameters.
func (p Parameters) Range() DateRange {
	return DateRange{Start: p.StartDate, End: p.EndDate}
}
