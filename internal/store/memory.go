package store

import (
	"context"
	"sync"
	"time"

	"github.com/makeasinger/scenegen/internal/model"
)

type memoryEntry struct {
	batch     model.Batch
	expiresAt time.Time
}

// MemoryBatchStore keeps batch records in process memory
type MemoryBatchStore struct {
	mu      sync.RWMutex
	batches map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryBatchStore() *MemoryBatchStore {
	return &MemoryBatchStore{
		batches: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryBatchStore) Save(ctx context.Context, batch *model.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.batches {
		if now.After(e.expiresAt) {
			delete(s.batches, id)
		}
	}

	s.batches[batch.ID] = memoryEntry{
		batch:     cloneBatch(batch),
		expiresAt: now.Add(BatchTTL),
	}
	return nil
}

func (s *MemoryBatchStore) Get(ctx context.Context, batchID string) (*model.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.batches[batchID]
	if !ok || s.now().After(e.expiresAt) {
		return nil, ErrBatchNotFound
	}

	b := cloneBatch(&e.batch)
	return &b, nil
}

func cloneBatch(b *model.Batch) model.Batch {
	c := *b
	if b.Outcomes != nil {
		c.Outcomes = make([]model.SceneOutcome, len(b.Outcomes))
		copy(c.Outcomes, b.Outcomes)
	}
	return c
}
