package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReconciliation = "jobs:reconciliation"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// ReportSaveFailure queues a failed save for administrative review. It
// satisfies service.FailureSink — the engine never blocks on it.
func (d *Dispatcher) ReportSaveFailure(ctx context.Context, f service.SaveFailure) error {
	return d.enqueue(ctx, QueueReconciliation, "reconciliation", ReconciliationJobPayload{
		ShippingCode: f.ShippingCode,
		Type:         string(f.Type),
		FailedStep:   f.FailedStep,
		Reason:       f.Reason,
		FileName:     f.FileName,
		FailedAt:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// WorkerHandlers holds one handler per queue, wired at the composition root.
type WorkerHandlers struct {
	Reconciliation *ReconciliationWorker
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueReconciliation}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case "reconciliation":
		if handlers != nil && handlers.Reconciliation != nil {
			handlers.Reconciliation.Process(ctx, rdb, job.Payload)
			return
		}
	}
	log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job")
}
