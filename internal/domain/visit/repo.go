package visit

import (
	"context"
	"errors"
)

// ErrNotFound reports a visit id with no persisted entry.
var ErrNotFound = errors.New("visit not found")

// Repository persists the bounded, most-recent-first visit list. Save
// evicts the oldest entries beyond the configured cap in the same
// transaction as the insert.
type Repository interface {
	Save(ctx context.Context, sv *StoredVisit) error
	GetByID(ctx context.Context, id string) (*StoredVisit, error)
	List(ctx context.Context, limit, offset int) ([]*StoredVisit, int, error)
	Update(ctx context.Context, sv *StoredVisit) error
	Delete(ctx context.Context, id string) error
}
