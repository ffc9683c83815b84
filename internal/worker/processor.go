package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fleetify/report-service/internal/domain"
)

// Progress checkpoints a job passes through while being processed.
const (
	progressReceived   = 10
	progressFetching   = 30
	progressRendering  = 50
	progressFinalizing = 90
)

// processJob drives one job through its lifecycle. It never returns the
// rendering error itself: any failure is recorded on the job record as a
// FAILED status, so a job can end up terminal but never stuck.
func (w *Worker) processJob(ctx context.Context, descriptor *domain.JobDescriptor) (err error) {
	jobID := descriptor.JobID

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing job: %v", r)
			w.markFailed(ctx, jobID, err.Error())
		}
	}()

	job, err := w.jobs.Status(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// Redelivery for a record this instance never created (or one
			// already swept). Nothing to update, nothing to render.
			w.logger.Warn("No job record for delivery, skipping",
				slog.String("job_id", jobID),
			)
			return nil
		}
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	// At-least-once delivery: a duplicate of an already finished job is
	// dropped here instead of being reprocessed.
	if job.Status.Terminal() {
		w.logger.Info("Job already in terminal state, skipping duplicate delivery",
			slog.String("job_id", jobID),
			slog.String("status", string(job.Status)),
		)
		return nil
	}

	w.logger.Info("Processing report job",
		slog.String("job_id", jobID),
		slog.String("report_type", descriptor.ReportType),
	)

	w.advance(ctx, jobID, progressReceived)

	reportType, err := domain.ParseReportType(descriptor.ReportType)
	if err != nil {
		w.markFailed(ctx, jobID, "unknown report type: "+descriptor.ReportType)
		return nil
	}

	w.advance(ctx, jobID, progressFetching)
	w.advance(ctx, jobID, progressRendering)

	content, err := w.renderer.Render(ctx, reportType, descriptor.Parameters, descriptor.Credential)
	if err != nil {
		w.markFailed(ctx, jobID, err.Error())
		return nil
	}

	w.advance(ctx, jobID, progressFinalizing)

	if len(content) == 0 {
		w.markFailed(ctx, jobID, domain.ErrEmptyDocument.Error())
		return nil
	}

	if err := w.jobs.StoreResult(ctx, jobID, content); err != nil {
		w.markFailed(ctx, jobID, "failed to store report result: "+err.Error())
		return nil
	}

	w.logger.Info("Report job completed",
		slog.String("job_id", jobID),
		slog.Int("content_size", len(content)),
	)

	return nil
}

// advance bumps the job to PROCESSING at the given progress checkpoint.
// A failed update is logged and processing continues; the store keeps
// progress monotonic on its own.
func (w *Worker) advance(ctx context.Context, jobID string, progress int) {
	if err := w.jobs.UpdateStatus(ctx, jobID, domain.StatusProcessing, progress, ""); err != nil {
		w.logger.Warn("Failed to update job progress",
			slog.String("job_id", jobID),
			slog.Int("progress", progress),
			slog.String("error", err.Error()),
		)
	}
}

func (w *Worker) markFailed(ctx context.Context, jobID, message string) {
	w.logger.Error("Report job failed",
		slog.String("job_id", jobID),
		slog.String("error", message),
	)

	if err := w.jobs.UpdateStatus(ctx, jobID, domain.StatusFailed, 0, message); err != nil {
		w.logger.Error("Failed to mark job as FAILED",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}
