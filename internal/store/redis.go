package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/makeasinger/scenegen/internal/model"
)

// RedisBatchStore keeps batch records as JSON under batch:<id>
type RedisBatchStore struct {
	redis *redis.Client
}

func NewRedisBatchStore(redisClient *redis.Client) *RedisBatchStore {
	return &RedisBatchStore{redis: redisClient}
}

func (s *RedisBatchStore) Save(ctx context.Context, batch *model.Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, batchKey(batch.ID), data, BatchTTL).Err()
}

func (s *RedisBatchStore) Get(ctx context.Context, batchID string) (*model.Batch, error) {
	data, err := s.redis.Get(ctx, batchKey(batchID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	var batch model.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch: %w", err)
	}

	return &batch, nil
}

func batchKey(id string) string {
	return fmt.Sprintf("batch:%s", id)
}
