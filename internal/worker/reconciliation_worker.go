package worker

// reconciliation_worker.go
// Persists failed-save breadcrumbs so an administrator can review partially
// applied sessions (e.g. video saved but inventory not deducted). The task
// is a record for manual review only — inventory deltas are never re-applied
// automatically.

import (
	"context"
	"encoding/json"

	"github.com/vuhoangviet271/packing-video-app/internal/model"
	"github.com/vuhoangviet271/packing-video-app/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReconciliationJobPayload is the job envelope sent to QueueReconciliation.
type ReconciliationJobPayload struct {
	ShippingCode string `json:"shipping_code"`
	Type         string `json:"type"`
	FailedStep   string `json:"failed_step"`
	Reason       string `json:"reason"`
	FileName     string `json:"file_name,omitempty"`
	FailedAt     string `json:"failed_at"`
}

// ReconciliationWorker writes one ReconciliationTask row per failed save.
type ReconciliationWorker struct {
	repo repository.ReconciliationRepository
}

func NewReconciliationWorker(repo repository.ReconciliationRepository) *ReconciliationWorker {
	return &ReconciliationWorker{repo: repo}
}

// Process handles a single reconciliation job. If even the breadcrumb write
// fails, the job moves to the DLQ so the failure is not lost silently.
func (w *ReconciliationWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload ReconciliationJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("reconciliation_worker: invalid payload")
		return
	}

	task := &model.ReconciliationTask{
		ShippingCode: payload.ShippingCode,
		Type:         model.VideoType(payload.Type),
		FailedStep:   payload.FailedStep,
		Reason:       payload.Reason,
		FileName:     payload.FileName,
	}
	if err := w.repo.Create(ctx, task); err != nil {
		log.Error().Err(err).Str("shipping_code", payload.ShippingCode).
			Msg("reconciliation_worker: failed to persist task, sending to DLQ")
		SendToDLQ(ctx, rdb, QueueReconciliation, "reconciliation", raw, err.Error(), 1)
		return
	}

	log.Warn().
		Str("shipping_code", payload.ShippingCode).
		Str("failed_step", payload.FailedStep).
		Msg("reconciliation task recorded for administrative review")
}
