package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/makeasinger/scenegen/internal/model"
	"github.com/makeasinger/scenegen/internal/store"
)

const (
	TaskTypeGenerateAll = "scenes:generate-all"
	QueueScenes         = "scenes"
)

// BatchNotifier receives batch lifecycle events
type BatchNotifier interface {
	BroadcastProgress(batchID string, progress int, status model.JobStatus, step string)
	BroadcastComplete(batchID string, result interface{})
	BroadcastError(batchID string, code, message string)
}

// BatchService tracks generate-all runs as jobs. With an asynq client the
// run is queued for the worker server; without one it runs in-process.
type BatchService struct {
	store        store.BatchStore
	orchestrator *SceneOrchestrator
	asynqClient  *asynq.Client
	notifier     BatchNotifier

	mu      sync.Mutex
	pending string
}

func NewBatchService(batchStore store.BatchStore, orchestrator *SceneOrchestrator, asynqClient *asynq.Client, notifier BatchNotifier) *BatchService {
	return &BatchService{
		store:        batchStore,
		orchestrator: orchestrator,
		asynqClient:  asynqClient,
		notifier:     notifier,
	}
}

// StartBatch records and dispatches a new batch
func (s *BatchService) StartBatch(ctx context.Context) (*model.BatchStartResponse, error) {
	batchID := uuid.New().String()
	now := time.Now()

	s.mu.Lock()
	if s.pending != "" || s.orchestrator.BatchInFlight() {
		s.mu.Unlock()
		return nil, ErrBatchInFlight
	}
	s.pending = batchID
	s.mu.Unlock()

	batch := &model.Batch{
		ID:        batchID,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}

	if err := s.store.Save(ctx, batch); err != nil {
		s.release(batchID)
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}

	if s.asynqClient == nil {
		go func() {
			if err := s.RunBatch(context.Background(), batchID); err != nil {
				log.Printf("Batch %s failed: %v", batchID, err)
			}
		}()
	} else if err := s.enqueue(batchID); err != nil {
		s.release(batchID)
		return nil, err
	}

	return &model.BatchStartResponse{
		BatchID:   batchID,
		Status:    model.JobStatusQueued,
		Scenes:    s.orchestrator.Len(),
		CreatedAt: now,
	}, nil
}

func (s *BatchService) enqueue(batchID string) error {
	data, err := json.Marshal(model.BatchJobPayload{BatchID: batchID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = s.asynqClient.Enqueue(asynq.NewTask(TaskTypeGenerateAll, data),
		asynq.Queue(QueueScenes),
		asynq.MaxRetry(0),
		asynq.Retention(store.BatchTTL),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// RunBatch executes a queued batch to completion (called by worker)
func (s *BatchService) RunBatch(ctx context.Context, batchID string) error {
	defer s.release(batchID)

	batch, err := s.store.Get(ctx, batchID)
	if err != nil {
		return err
	}

	started := time.Now()
	batch.Status = model.JobStatusRunning
	batch.StartedAt = &started
	s.save(ctx, batch)

	log.Printf("Starting batch: %s", batchID)

	report, err := s.orchestrator.GenerateAll(ctx, BatchHooks{
		OnSceneStart: func(index, total int, scene model.Scene) {
			batch.ActiveIndex = index
			batch.CurrentStep = fmt.Sprintf("Generating scene %d/%d...", index+1, total)
			s.save(ctx, batch)
			s.notifyProgress(batch)
		},
		OnSceneSettled: func(index, total int, outcome model.SceneOutcome) {
			batch.Outcomes = append(batch.Outcomes, outcome)
			batch.Progress = (index + 1) * 100 / total
			s.save(ctx, batch)
			s.notifyProgress(batch)
		},
	})
	if err != nil {
		code := "BATCH_FAILED"
		if errors.Is(err, ErrBatchInFlight) {
			code = "BATCH_IN_FLIGHT"
		}
		s.fail(ctx, batch, code, err)
		return err
	}

	completed := time.Now()
	batch.Status = model.JobStatusSucceeded
	batch.Progress = 100
	batch.CurrentStep = ""
	batch.CompletedAt = &completed

	if s.notifier != nil {
		s.notifier.BroadcastComplete(batchID, report)
	}

	// The terminal record is written last: once a poller sees it, a new
	// batch can start.
	s.release(batchID)
	s.save(ctx, batch)

	log.Printf("Batch %s completed: %d completed, %d failed, %d skipped", batchID, report.Completed, report.Failed, report.Skipped)
	return nil
}

// GetStatus returns the current record of a batch
func (s *BatchService) GetStatus(ctx context.Context, batchID string) (*model.Batch, error) {
	return s.store.Get(ctx, batchID)
}

func (s *BatchService) fail(ctx context.Context, batch *model.Batch, code string, cause error) {
	msg := cause.Error()
	completed := time.Now()
	batch.Status = model.JobStatusFailed
	if errors.Is(cause, context.Canceled) {
		batch.Status = model.JobStatusCanceled
	}
	batch.Error = &msg
	batch.CompletedAt = &completed

	if s.notifier != nil {
		s.notifier.BroadcastError(batch.ID, code, msg)
	}

	s.release(batch.ID)
	// ctx may already be done; the record still has to land.
	s.save(context.WithoutCancel(ctx), batch)
}

func (s *BatchService) notifyProgress(batch *model.Batch) {
	if s.notifier != nil {
		s.notifier.BroadcastProgress(batch.ID, batch.Progress, batch.Status, batch.CurrentStep)
	}
}

func (s *BatchService) save(ctx context.Context, batch *model.Batch) {
	if err := s.store.Save(ctx, batch); err != nil {
		log.Printf("Failed to save batch %s: %v", batch.ID, err)
	}
}

func (s *BatchService) release(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == batchID {
		s.pending = ""
	}
}
