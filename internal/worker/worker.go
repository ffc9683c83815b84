package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fleetify/report-service/internal/domain"
	"github.com/fleetify/report-service/shared/rabbitmq"
)

// JobService is the slice of the job service the consumer drives.
type JobService interface {
	Status(ctx context.Context, jobID string) (*domain.ReportJob, error)
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errorMessage string) error
	StoreResult(ctx context.Context, jobID string, content []byte) error
}

// Renderer produces the report document for one job.
type Renderer interface {
	Render(ctx context.Context, reportType domain.ReportType, params domain.Parameters, credential string) ([]byte, error)
}

// Config holds worker configuration.
type Config struct {
	Logger       *slog.Logger
	RabbitClient *rabbitmq.Client
	Jobs         JobService
	Renderer     Renderer
	Concurrency  int
	Prefetch     int
}

// Worker consumes job descriptors from the broker and drives each job
// through its state machine. Concurrency comes from N independent consumers,
// each on its own channel: prefetch is a per-consumer budget, so one shared
// subscription would cap the whole pool at `prefetch` in-flight jobs no
// matter how many goroutines drain it.
type Worker struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	jobs         JobService
	renderer     Renderer
	concurrency  int
	prefetch     int
	consumerID   string

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewWorker creates a new worker instance.
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Worker{
		logger:       cfg.Logger,
		rabbitClient: cfg.RabbitClient,
		jobs:         cfg.Jobs,
		renderer:     cfg.Renderer,
		concurrency:  concurrency,
		prefetch:     prefetch,
		consumerID:   "report-worker-" + uuid.NewString(),
		stopChan:     make(chan struct{}),
	}
}

// Start registers the consumers and blocks until the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("consumer_id", w.consumerID),
		slog.Int("concurrency", w.concurrency),
		slog.Int("prefetch", w.prefetch),
	)

	for i := 0; i < w.concurrency; i++ {
		tag := fmt.Sprintf("%s-%d", w.consumerID, i)

		channel, deliveries, err := w.rabbitClient.ConsumeOnNewChannel(tag, w.prefetch)
		if err != nil {
			return fmt.Errorf("failed to register consumer %s: %w", tag, err)
		}

		w.wg.Add(1)
		go func(workerNum int) {
			defer w.wg.Done()
			defer channel.Close()
			w.consumerLoop(ctx, workerNum, deliveries)
		}(i)
	}

	w.logger.Info("Consumer pool started",
		slog.Int("consumer_count", w.concurrency),
	)

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// Stop gracefully stops the worker, waiting for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
