package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/makeasinger/scenegen/internal/model"
	"github.com/makeasinger/scenegen/internal/service"
)

// BatchWorker processes queued generate-all batches
type BatchWorker struct {
	batchService *service.BatchService
}

// NewBatchWorker creates a new batch worker
func NewBatchWorker(batchService *service.BatchService) *BatchWorker {
	return &BatchWorker{batchService: batchService}
}

// ProcessTask handles batch task processing
func (w *BatchWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.BatchJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.BatchID == "" {
		return fmt.Errorf("missing batchId: %w", asynq.SkipRetry)
	}

	log.Printf("Processing batch task: %s", payload.BatchID)

	if err := w.batchService.RunBatch(ctx, payload.BatchID); err != nil {
		if errors.Is(err, service.ErrBatchInFlight) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}
