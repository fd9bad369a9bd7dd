package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/makeasinger/scenegen/internal/model"
)

// SceneNotifier receives a board snapshot after every scene transition
type SceneNotifier interface {
	BroadcastScenes(board *model.SceneBoard)
}

// BatchHooks lets callers follow a batch scene by scene. Either field may be nil.
type BatchHooks struct {
	OnSceneStart   func(index, total int, scene model.Scene)
	OnSceneSettled func(index, total int, outcome model.SceneOutcome)
}

// SceneOrchestrator owns the scene list and is the only writer of scene state.
// Scenes are fixed at construction; only status and image URL change.
type SceneOrchestrator struct {
	images   ImageGenerator
	notifier SceneNotifier
	pacing   time.Duration
	now      func() time.Time

	// pubMu is held from version bump to publish so snapshots reach the
	// notifier in version order. Lock order: pubMu, then mu.
	pubMu sync.Mutex

	mu            sync.Mutex
	scenes        []model.Scene
	byID          map[int]int
	activeIndex   int
	batchInFlight bool
	version       uint64
}

// NewSceneOrchestrator creates an orchestrator with every scene pending.
// IDs are assigned 1..n in definition order. notifier may be nil.
func NewSceneOrchestrator(defs []model.SceneDefinition, images ImageGenerator, pacing time.Duration, notifier SceneNotifier) *SceneOrchestrator {
	o := &SceneOrchestrator{
		images:   images,
		notifier: notifier,
		pacing:   pacing,
		now:      time.Now,
		scenes:   make([]model.Scene, len(defs)),
		byID:     make(map[int]int, len(defs)),
	}

	created := o.now()
	for i, def := range defs {
		o.scenes[i] = model.Scene{
			ID:        i + 1,
			Title:     def.Title,
			Prompt:    def.Prompt,
			Status:    model.SceneStatusPending,
			UpdatedAt: created,
		}
		o.byID[i+1] = i
	}

	return o
}

// Board returns a snapshot of all scenes
func (o *SceneOrchestrator) Board() *model.SceneBoard {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Scene returns a copy of the scene with the given ID
func (o *SceneOrchestrator) Scene(id int) (model.Scene, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx, ok := o.byID[id]
	if !ok {
		return model.Scene{}, ErrSceneNotFound
	}
	return o.scenes[idx], nil
}

// Len returns the number of scenes
func (o *SceneOrchestrator) Len() int {
	return len(o.scenes)
}

// BatchInFlight reports whether GenerateAll is running
func (o *SceneOrchestrator) BatchInFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.batchInFlight
}

// GenerateOne drives one scene through Generating to Completed or Error and
// returns the settled scene. Generation failures are reported through the
// scene status, not the error; the error is only ErrSceneNotFound or
// ErrSceneBusy.
func (o *SceneOrchestrator) GenerateOne(ctx context.Context, id int) (model.Scene, error) {
	prompt, err := o.startScene(id)
	if err != nil {
		return model.Scene{}, err
	}

	result, genErr := o.images.Generate(ctx, prompt)
	if genErr == nil && (result == nil || result.ImageURL == "") {
		genErr = ErrGenerationFailed
	}
	if genErr != nil {
		log.Printf("Scene %d generation failed: %v", id, genErr)
		return o.settleScene(id, ""), nil
	}

	return o.settleScene(id, result.ImageURL), nil
}

// GenerateAll runs every scene once, in order, pausing between scenes. A
// failed scene does not stop the batch. Returns ErrBatchInFlight if a batch
// is already running, or the context error if ctx ends mid-batch; the
// partial report is returned in that case.
func (o *SceneOrchestrator) GenerateAll(ctx context.Context, hooks BatchHooks) (*model.BatchReport, error) {
	ids, err := o.startBatch()
	if err != nil {
		return nil, err
	}
	defer o.finishBatch()

	total := len(ids)
	report := &model.BatchReport{
		Outcomes:  make([]model.SceneOutcome, 0, total),
		StartedAt: o.now(),
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			report.CompletedAt = o.now()
			return report, err
		}

		current := o.activate(i)
		if hooks.OnSceneStart != nil {
			hooks.OnSceneStart(i, total, current)
		}

		outcome := model.SceneOutcome{SceneID: id, Title: current.Title}
		settled, err := o.GenerateOne(ctx, id)
		switch {
		case errors.Is(err, ErrSceneBusy):
			outcome.Status = model.OutcomeSkipped
			outcome.Error = err.Error()
			report.Skipped++
		case err != nil:
			outcome.Status = model.OutcomeFailed
			outcome.Error = err.Error()
			report.Failed++
		case settled.Status == model.SceneStatusCompleted:
			outcome.Status = model.OutcomeCompleted
			outcome.ImageURL = settled.ImageURL
			report.Completed++
		default:
			outcome.Status = model.OutcomeFailed
			outcome.Error = ErrGenerationFailed.Error()
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, outcome)

		if hooks.OnSceneSettled != nil {
			hooks.OnSceneSettled(i, total, outcome)
		}

		if err := o.pause(ctx); err != nil {
			report.CompletedAt = o.now()
			return report, err
		}
	}

	report.CompletedAt = o.now()
	return report, nil
}

func (o *SceneOrchestrator) pause(ctx context.Context) error {
	if o.pacing <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(o.pacing)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (o *SceneOrchestrator) startScene(id int) (string, error) {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()

	o.mu.Lock()
	idx, ok := o.byID[id]
	if !ok {
		o.mu.Unlock()
		return "", ErrSceneNotFound
	}

	scene := &o.scenes[idx]
	if scene.Status == model.SceneStatusGenerating {
		o.mu.Unlock()
		return "", ErrSceneBusy
	}

	scene.Status = model.SceneStatusGenerating
	scene.ImageURL = ""
	scene.UpdatedAt = o.now()
	prompt := scene.Prompt
	board := o.commitLocked()
	o.mu.Unlock()

	o.publish(board)
	return prompt, nil
}

// settleScene moves a generating scene to Completed when imageURL is set,
// otherwise to Error.
func (o *SceneOrchestrator) settleScene(id int, imageURL string) model.Scene {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()

	o.mu.Lock()
	scene := &o.scenes[o.byID[id]]
	if imageURL != "" {
		scene.Status = model.SceneStatusCompleted
	} else {
		scene.Status = model.SceneStatusError
	}
	scene.ImageURL = imageURL
	scene.UpdatedAt = o.now()
	settled := *scene
	board := o.commitLocked()
	o.mu.Unlock()

	o.publish(board)
	return settled
}

func (o *SceneOrchestrator) startBatch() ([]int, error) {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()

	o.mu.Lock()
	if o.batchInFlight {
		o.mu.Unlock()
		return nil, ErrBatchInFlight
	}

	o.batchInFlight = true
	o.activeIndex = 0
	ids := make([]int, len(o.scenes))
	for i, s := range o.scenes {
		ids[i] = s.ID
	}
	board := o.commitLocked()
	o.mu.Unlock()

	o.publish(board)
	return ids, nil
}

func (o *SceneOrchestrator) finishBatch() {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()

	o.mu.Lock()
	o.batchInFlight = false
	board := o.commitLocked()
	o.mu.Unlock()

	o.publish(board)
}

func (o *SceneOrchestrator) activate(index int) model.Scene {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()

	o.mu.Lock()
	o.activeIndex = index
	scene := o.scenes[index]
	board := o.commitLocked()
	o.mu.Unlock()

	o.publish(board)
	return scene
}

// commitLocked bumps the board version and returns a snapshot. mu must be held.
func (o *SceneOrchestrator) commitLocked() *model.SceneBoard {
	o.version++
	return o.snapshotLocked()
}

func (o *SceneOrchestrator) snapshotLocked() *model.SceneBoard {
	scenes := make([]model.Scene, len(o.scenes))
	copy(scenes, o.scenes)

	return &model.SceneBoard{
		Scenes:        scenes,
		ActiveIndex:   o.activeIndex,
		BatchInFlight: o.batchInFlight,
		Version:       o.version,
	}
}

func (o *SceneOrchestrator) publish(board *model.SceneBoard) {
	if o.notifier != nil {
		o.notifier.BroadcastScenes(board)
	}
}
