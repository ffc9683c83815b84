package handler

import (
	"context"
	"log/slog"

	"github.com/fleetify/report-service/internal/domain"
	"github.com/fleetify/report-service/internal/jobs"
)

// Renderer produces a report document synchronously. Used by the legacy
// direct-generation endpoints.
type Renderer interface {
	Render(ctx context.Context, reportType domain.ReportType, params domain.Parameters, credential string) ([]byte, error)
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Logger   *slog.Logger
	Jobs     *jobs.Service
	Renderer Renderer
}

// ReportHandler handles report HTTP requests.
type ReportHandler struct {
	logger   *slog.Logger
	jobs     *jobs.Service
	renderer Renderer
}

// NewReportHandler creates a ReportHandler instance.
func NewReportHandler(deps *Dependencies) *ReportHandler {
	return &ReportHandler{
		logger:   deps.Logger,
		jobs:     deps.Jobs,
		renderer: deps.Renderer,
	}
}
