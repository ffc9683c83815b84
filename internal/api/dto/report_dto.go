package dto

import (
	"time"

	"github.com/fleetify/report-service/internal/domain"
)

// ReportRequest is the request body for report generation endpoints.
// The include flags default to true when omitted.
type ReportRequest struct {
	StartDate      string `json:"start_date" binding:"required"`
	EndDate        string `json:"end_date" binding:"required"`
	IncludeCharts  *bool  `json:"include_charts"`
	IncludeSummary *bool  `json:"include_summary"`
}

// Parameters converts the request body into domain parameters.
func (r *ReportRequest) Parameters() domain.Parameters {
	params := domain.Parameters{
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		IncludeCharts:  true,
		IncludeSummary: true,
	}
	if r.IncludeCharts != nil {
		params.IncludeCharts = *r.IncludeCharts
	}
	if r.IncludeSummary != nil {
		params.IncludeSummary = *r.IncludeSummary
	}
	return params
}

// ReportJobResponse is the JSON view of a report job returned by the
// request and status endpoints.
type ReportJobResponse struct {
	JobID        string     `json:"job_id,omitempty"`
	ReportType   string     `json:"report_type,omitempty"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DownloadURL  string     `json:"download_url,omitempty"`
	Message      string     `json:"message,omitempty"`
}

// FromJob builds the response view for a job record.
func FromJob(job *domain.ReportJob) ReportJobResponse {
	resp := ReportJobResponse{
		JobID:        job.ID,
		ReportType:   string(job.Type),
		Status:       string(job.Status),
		Progress:     job.Progress,
		ErrorMessage: job.ErrorMessage,
		CompletedAt:  job.CompletedAt,
	}

	createdAt := job.CreatedAt
	if !createdAt.IsZero() {
		resp.CreatedAt = &createdAt
	}

	switch job.Status {
	case domain.StatusPending:
		resp.Message = "Report is waiting in the queue"
	case domain.StatusProcessing:
		resp.Message = "Report generation in progress"
	case domain.StatusCompleted:
		resp.Message = "Report is ready for download"
		resp.DownloadURL = "/api/reports/download/" + job.ID
	case domain.StatusFailed:
		resp.Message = "Report generation failed"
	}

	return resp
}

// NotFound is the response body for an unknown job id.
func NotFound(jobID string) ReportJobResponse {
	return ReportJobResponse{
		JobID:   jobID,
		Status:  "NOT_FOUND",
		Message: "Job not found",
	}
}
