package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/makeasinger/scenegen/internal/model"
)

// ImageGenerator produces an image reference for a prompt
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*model.ImageResult, error)
}

// PlaceholderImageService stands in for a real generation backend: it waits a
// fixed latency and returns a random reference from a fixed pool.
type PlaceholderImageService struct {
	latency time.Duration
	pool    []string
	pick    func(n int) int
}

// NewPlaceholderImageService creates a stub generator over a non-empty pool
func NewPlaceholderImageService(latency time.Duration, pool []string) (*PlaceholderImageService, error) {
	if len(pool) == 0 {
		return nil, errors.New("image pool is empty")
	}

	p := make([]string, len(pool))
	copy(p, pool)

	return &PlaceholderImageService{
		latency: latency,
		pool:    p,
		pick:    rand.Intn,
	}, nil
}

// Generate simulates generation for prompt
func (s *PlaceholderImageService) Generate(ctx context.Context, prompt string) (*model.ImageResult, error) {
	if prompt == "" {
		return nil, ErrInvalidInput
	}

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, ctx.Err())
		case <-timer.C:
		}
	}

	return &model.ImageResult{
		ImageURL: s.pool[s.pick(len(s.pool))],
		Prompt:   prompt,
	}, nil
}
