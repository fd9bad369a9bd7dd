package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/makeasinger/scenegen/internal/model"
	"github.com/makeasinger/scenegen/internal/store"
)

type recordingBatchNotifier struct {
	mu       sync.Mutex
	progress []int
	complete int
	errors   []string
}

func (r *recordingBatchNotifier) BroadcastProgress(batchID string, progress int, status model.JobStatus, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, progress)
}

func (r *recordingBatchNotifier) BroadcastComplete(batchID string, result interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete++
}

func (r *recordingBatchNotifier) BroadcastError(batchID string, code, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, code)
}

func waitForBatch(t *testing.T, svc *BatchService, batchID string, status model.JobStatus) *model.Batch {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		b, err := svc.GetStatus(context.Background(), batchID)
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if b.Status == status {
			return b
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("batch %s never reached %s", batchID, status)
	return nil
}

func newTestBatchService() (*BatchService, *SceneOrchestrator, *fakeGenerator, *recordingBatchNotifier) {
	o, gen, _ := newTestOrchestrator(0)
	notifier := &recordingBatchNotifier{}
	return NewBatchService(store.NewMemoryBatchStore(), o, nil, notifier), o, gen, notifier
}

func TestBatchService_RunsInProcess(t *testing.T) {
	svc, o, gen, notifier := newTestBatchService()
	gen.setFail("prompt 4", true)

	resp, err := svc.StartBatch(context.Background())
	if err != nil {
		t.Fatalf("StartBatch failed: %v", err)
	}
	if resp.Status != model.JobStatusQueued {
		t.Errorf("expected queued, got %s", resp.Status)
	}
	if resp.Scenes != 5 {
		t.Errorf("expected 5 scenes, got %d", resp.Scenes)
	}

	batch := waitForBatch(t, svc, resp.BatchID, model.JobStatusSucceeded)
	if batch.Progress != 100 {
		t.Errorf("expected progress 100, got %d", batch.Progress)
	}
	if len(batch.Outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(batch.Outcomes))
	}
	if batch.Outcomes[3].Status != model.OutcomeFailed {
		t.Errorf("expected scene 4 failed, got %s", batch.Outcomes[3].Status)
	}
	if batch.StartedAt == nil || batch.CompletedAt == nil {
		t.Error("expected start and completion times")
	}
	if batch.ActiveIndex != 4 {
		t.Errorf("expected active index 4, got %d", batch.ActiveIndex)
	}

	if o.BatchInFlight() {
		t.Error("expected orchestrator batch flag cleared")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.complete != 1 {
		t.Errorf("expected one completion broadcast, got %d", notifier.complete)
	}
	if len(notifier.progress) != 10 {
		t.Errorf("expected 10 progress broadcasts, got %v", notifier.progress)
	}
}

func TestBatchService_RejectsWhileInFlight(t *testing.T) {
	svc, _, gen, _ := newTestBatchService()
	release := gen.gate("prompt 1")

	first, err := svc.StartBatch(context.Background())
	if err != nil {
		t.Fatalf("StartBatch failed: %v", err)
	}
	waitStarted(t, gen, "prompt 1")

	if _, err := svc.StartBatch(context.Background()); !errors.Is(err, ErrBatchInFlight) {
		t.Fatalf("expected ErrBatchInFlight, got %v", err)
	}

	running, err := svc.GetStatus(context.Background(), first.BatchID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if running.Status != model.JobStatusRunning {
		t.Errorf("expected running, got %s", running.Status)
	}

	close(release)
	waitForBatch(t, svc, first.BatchID, model.JobStatusSucceeded)

	second, err := svc.StartBatch(context.Background())
	if err != nil {
		t.Fatalf("expected a new batch right after completion, got %v", err)
	}
	waitForBatch(t, svc, second.BatchID, model.JobStatusSucceeded)
}

func TestBatchService_TerminalRecordSavedLast(t *testing.T) {
	svc, _, gen, notifier := newTestBatchService()
	gen.setFail("prompt 2", true)

	for i := 0; i < 3; i++ {
		resp, err := svc.StartBatch(context.Background())
		if err != nil {
			t.Fatalf("run %d: StartBatch failed: %v", i, err)
		}
		waitForBatch(t, svc, resp.BatchID, model.JobStatusSucceeded)

		notifier.mu.Lock()
		complete := notifier.complete
		notifier.mu.Unlock()
		if complete != i+1 {
			t.Errorf("run %d: expected %d completion broadcasts when the record lands, got %d", i, i+1, complete)
		}
	}
}

func TestBatchService_RunBatchUnknown(t *testing.T) {
	svc, _, _, _ := newTestBatchService()

	if err := svc.RunBatch(context.Background(), "missing"); !errors.Is(err, store.ErrBatchNotFound) {
		t.Errorf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestBatchService_RunBatchWhileOrchestratorBusy(t *testing.T) {
	svc, o, gen, notifier := newTestBatchService()
	release := gen.gate("prompt 1")

	done := make(chan struct{})
	go func() {
		o.GenerateAll(context.Background(), BatchHooks{})
		close(done)
	}()
	waitStarted(t, gen, "prompt 1")

	batch := &model.Batch{ID: "direct", Status: model.JobStatusQueued, CreatedAt: time.Now()}
	if err := svc.store.Save(context.Background(), batch); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := svc.RunBatch(context.Background(), "direct"); !errors.Is(err, ErrBatchInFlight) {
		t.Fatalf("expected ErrBatchInFlight, got %v", err)
	}

	got, _ := svc.GetStatus(context.Background(), "direct")
	if got.Status != model.JobStatusFailed || got.Error == nil {
		t.Errorf("expected failed batch with error, got %+v", got)
	}

	notifier.mu.Lock()
	codes := append([]string(nil), notifier.errors...)
	notifier.mu.Unlock()
	if len(codes) != 1 || codes[0] != "BATCH_IN_FLIGHT" {
		t.Errorf("expected BATCH_IN_FLIGHT broadcast, got %v", codes)
	}

	close(release)
	<-done
}
