package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fleetify/report-service/internal/domain"
)

// consumerLoop is the processing loop of one independent consumer. Its
// channel's QoS caps this loop at `prefetch` unacked deliveries, so across
// the pool at most concurrency*prefetch jobs are in flight.
func (w *Worker) consumerLoop(ctx context.Context, workerNum int, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Consumer started",
		slog.Int("worker_num", workerNum),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Consumer stopping",
				slog.Int("worker_num", workerNum),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Consumer stopping - context canceled",
				slog.Int("worker_num", workerNum),
			)
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("Delivery channel closed",
					slog.Int("worker_num", workerNum),
				)
				return
			}

			w.handleDelivery(ctx, workerNum, delivery)
		}
	}
}

// handleDelivery decodes and processes one delivery. The delivery is
// acknowledged after the handler completes, whatever the outcome: a failed
// render is terminal for that job, never redelivered.
func (w *Worker) handleDelivery(ctx context.Context, workerNum int, delivery amqp.Delivery) {
	var descriptor domain.JobDescriptor
	if err := json.Unmarshal(delivery.Body, &descriptor); err != nil {
		// Malformed payloads can never become valid. Ack to discard;
		// there is no dead-letter routing on this queue.
		w.logger.Error("Failed to unmarshal job descriptor, discarding",
			slog.Int("worker_num", workerNum),
			slog.String("error", err.Error()),
			slog.Uint64("delivery_tag", delivery.DeliveryTag),
		)
		if err := delivery.Ack(false); err != nil {
			w.logger.Error("Failed to ACK malformed message",
				slog.String("error", err.Error()),
			)
		}
		return
	}

	w.logger.Info("Worker received job",
		slog.Int("worker_num", workerNum),
		slog.String("job_id", descriptor.JobID),
		slog.Uint64("delivery_tag", delivery.DeliveryTag),
	)

	if err := w.processJob(ctx, &descriptor); err != nil {
		// The job record already carries the failure; the error here
		// is informational only.
		w.logger.Error("Job processing failed",
			slog.Int("worker_num", workerNum),
			slog.String("job_id", descriptor.JobID),
			slog.String("error", err.Error()),
		)
	}

	if err := delivery.Ack(false); err != nil {
		w.logger.Error("Failed to ACK message",
			slog.String("job_id", descriptor.JobID),
			slog.String("error", err.Error()),
		)
	}
}
