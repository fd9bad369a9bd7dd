// Package store keeps batch job records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/makeasinger/scenegen/internal/model"
)

// BatchTTL is how long a batch record is kept
const BatchTTL = 24 * time.Hour

// ErrBatchNotFound is returned when no record exists for a batch ID
var ErrBatchNotFound = errors.New("batch not found")

// BatchStore persists batch job records
type BatchStore interface {
	Save(ctx context.Context, batch *model.Batch) error
	Get(ctx context.Context, batchID string) (*model.Batch, error)
}
