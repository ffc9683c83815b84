package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fleetify/report-service/internal/domain"
	"github.com/fleetify/report-service/internal/store"
)

// Publisher enqueues a serialized job descriptor on the message broker.
type Publisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Service owns the job lifecycle: submission, status queries, download
// gating, and the status/result updates driven by the consumer.
type Service struct {
	jobs      store.JobStore
	results   store.ResultStore
	publisher Publisher
	logger    *slog.Logger
	newID     func() string
}

// NewService creates the job service.
func NewService(jobs store.JobStore, results store.ResultStore, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		jobs:      jobs,
		results:   results,
		publisher: publisher,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Submit validates the report type, creates a PENDING record and publishes
// its descriptor. If publishing fails the record is transitioned to FAILED
// right away: no consumer will ever see the job, so leaving it PENDING would
// strand it forever. Publish failures are not retried.
func (s *Service) Submit(ctx context.Context, reportType string, params domain.Parameters, credential string) (*domain.ReportJob, error) {
	rt, err := domain.ParseReportType(reportType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownReportType, reportType)
	}

	job := &domain.ReportJob{
		ID:         s.newID(),
		Type:       rt,
		Params:     params,
		Credential: credential,
		Status:     domain.StatusPending,
		Progress:   0,
		CreatedAt:  time.Now(),
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	s.logger.Info("Queueing report job",
		slog.String("job_id", job.ID),
		slog.String("report_type", string(rt)),
	)

	descriptor := domain.JobDescriptor{
		JobID:      job.ID,
		ReportType: string(rt),
		Parameters: params,
		Credential: credential,
	}

	body, err := json.Marshal(descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job descriptor: %w", err)
	}

	if err := s.publisher.Publish(ctx, body, "application/json"); err != nil {
		s.logger.Error("Failed to publish job descriptor",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
		failMsg := fmt.Sprintf("failed to queue job: %s", err.Error())
		if updateErr := s.jobs.UpdateStatus(ctx, job.ID, domain.StatusFailed, 0, failMsg); updateErr != nil {
			s.logger.Error("Failed to mark job as failed after publish error",
				slog.String("job_id", job.ID),
				slog.Any("error", updateErr),
			)
		}
		return s.jobs.Get(ctx, job.ID)
	}

	s.logger.Info("Job descriptor published",
		slog.String("job_id", job.ID),
	)

	return s.jobs.Get(ctx, job.ID)
}

// Status returns the current job record, or domain.ErrJobNotFound.
func (s *Service) Status(ctx context.Context, jobID string) (*domain.ReportJob, error) {
	return s.jobs.Get(ctx, jobID)
}

// Download returns the rendered document and its filename. The document is
// available only when the job is COMPLETED and a result has been stored.
func (s *Service) Download(ctx context.Context, jobID string) ([]byte, string, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, "", err
	}

	if job.Status != domain.StatusCompleted {
		return nil, "", domain.ErrReportNotReady
	}

	content, err := s.results.Get(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	if len(content) == 0 {
		return nil, "", domain.ErrEmptyDocument
	}

	return content, Filename(jobID), nil
}

// UpdateStatus moves a job through its state machine. Called by the consumer.
func (s *Service) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errorMessage string) error {
	if err := s.jobs.UpdateStatus(ctx, jobID, status, progress, errorMessage); err != nil {
		return err
	}

	s.logger.Info("Updated job status",
		slog.String("job_id", jobID),
		slog.String("status", string(status)),
		slog.Int("progress", progress),
	)
	return nil
}

// StoreResult saves the rendered document and completes the job.
func (s *Service) StoreResult(ctx context.Context, jobID string, content []byte) error {
	if err := s.results.Put(ctx, jobID, content); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	if err := s.jobs.UpdateStatus(ctx, jobID, domain.StatusCompleted, 100, ""); err != nil {
		return err
	}

	s.logger.Info("Stored report result",
		slog.String("job_id", jobID),
		slog.Int("bytes", len(content)),
	)
	return nil
}

// Filename builds the attachment name for a completed report.
func Filename(jobID string) string {
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("report-%s.xlsx", short)
}
