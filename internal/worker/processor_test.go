package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetify/report-service/internal/domain"
	"github.com/fleetify/report-service/internal/jobs"
	"github.com/fleetify/report-service/internal/store"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, []byte, string) error { return nil }

type stubRenderer struct {
	content []byte
	err     error
	calls   int
}

func (r *stubRenderer) Render(_ context.Context, _ domain.ReportType, _ domain.Parameters, _ string) ([]byte, error) {
	r.calls++
	return r.content, r.err
}

type processorFixture struct {
	worker   *Worker
	jobs     *jobs.Service
	jobStore *store.MemoryJobStore
	renderer *stubRenderer
}

func newProcessorFixture(renderer *stubRenderer) *processorFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobStore := store.NewMemoryJobStore()
	resultStore := store.NewMemoryResultStore()
	svc := jobs.NewService(jobStore, resultStore, nopPublisher{}, logger)

	w := &Worker{
		logger:   logger,
		jobs:     svc,
		renderer: renderer,
		stopChan: make(chan struct{}),
	}

	return &processorFixture{
		worker:   w,
		jobs:     svc,
		jobStore: jobStore,
		renderer: renderer,
	}
}

func submitJob(t *testing.T, f *processorFixture) *domain.ReportJob {
	t.Helper()

	params := domain.Parameters{
		StartDate:      "2024-01-01",
		EndDate:        "2024-01-31",
		IncludeCharts:  true,
		IncludeSummary: true,
	}
	job, err := f.jobs.Submit(context.Background(), string(domain.ReportFleetSummary), params, "Bearer token")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, job.Status)
	return job
}

func descriptorFor(job *domain.ReportJob) *domain.JobDescriptor {
	return &domain.JobDescriptor{
		JobID:      job.ID,
		ReportType: string(job.Type),
		Parameters: job.Params,
		Credential: job.Credential,
	}
}

func TestProcessJobSuccess(t *testing.T) {
	f := newProcessorFixture(&stubRenderer{content: []byte("xlsx-bytes")})
	job := submitJob(t, f)

	err := f.worker.processJob(context.Background(), descriptorFor(job))
	require.NoError(t, err)

	got, err := f.jobs.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.CompletedAt)

	content, filename, err := f.jobs.Download(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx-bytes"), content)
	assert.Equal(t, jobs.Filename(job.ID), filename)
}

func TestProcessJobRendererError(t *testing.T) {
	f := newProcessorFixture(&stubRenderer{err: errors.New("upstream exploded")})
	job := submitJob(t, f)

	err := f.worker.processJob(context.Background(), descriptorFor(job))
	require.NoError(t, err)

	got, err := f.jobs.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "upstream exploded")
	require.NotNil(t, got.CompletedAt)

	// Failure freezes progress at the last checkpoint before the render.
	assert.Equal(t, 50, got.Progress)

	_, _, err = f.jobs.Download(context.Background(), job.ID)
	assert.ErrorIs(t, err, domain.ErrReportNotReady)
}

func TestProcessJobEmptyDocument(t *testing.T) {
	f := newProcessorFixture(&stubRenderer{content: []byte{}})
	job := submitJob(t, f)

	err := f.worker.processJob(context.Background(), descriptorFor(job))
	require.NoError(t, err)

	got, err := f.jobs.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, domain.ErrEmptyDocument.Error())
}

func TestProcessJobUnknownType(t *testing.T) {
	f := newProcessorFixture(&stubRenderer{content: []byte("unused")})
	job := submitJob(t, f)

	descriptor := descriptorFor(job)
	descriptor.ReportType = "quarterly-astrology"

	err := f.worker.processJob(context.Background(), descriptor)
	require.NoError(t, err)

	got, err := f.jobs.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "quarterly-astrology")
	assert.Zero(t, f.renderer.calls)
}

func TestProcessJobDuplicateDeliverySkipped(t *testing.T) {
	renderer := &stubRenderer{content: []byte("first run")}
	f := newProcessorFixture(renderer)
	job := submitJob(t, f)

	require.NoError(t, f.worker.processJob(context.Background(), descriptorFor(job)))
	require.Equal(t, 1, renderer.calls)

	first, err := f.jobs.Status(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	// Redelivery of the same descriptor must not render again or touch
	// the finished record.
	require.NoError(t, f.worker.processJob(context.Background(), descriptorFor(job)))
	assert.Equal(t, 1, renderer.calls)

	second, err := f.jobs.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)
}

func TestProcessJobMissingRecord(t *testing.T) {
	renderer := &stubRenderer{content: []byte("unused")}
	f := newProcessorFixture(renderer)

	descriptor := &domain.JobDescriptor{
		JobID:      "ghost-job",
		ReportType: string(domain.ReportTrips),
	}

	err := f.worker.processJob(context.Background(), descriptor)
	require.NoError(t, err)
	assert.Zero(t, renderer.calls)
}

func TestProcessJobRendererPanic(t *testing.T) {
	f := newProcessorFixture(&stubRenderer{})
	job := submitJob(t, f)

	panicking := &panicRenderer{}
	f.worker.renderer = panicking

	err := f.worker.processJob(context.Background(), descriptorFor(job))
	require.Error(t, err)

	got, statusErr := f.jobs.Status(context.Background(), job.ID)
	require.NoError(t, statusErr)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "panic")
}

type panicRenderer struct{}

func (panicRenderer) Render(context.Context, domain.ReportType, domain.Parameters, string) ([]byte, error) {
	panic("renderer blew up")
}
