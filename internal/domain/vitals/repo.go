package vitals

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("vital entry not found")

// Repository persists the bounded, most-recent-first daily vitals list.
type Repository interface {
	Create(ctx context.Context, v *DailyVital) error
	GetByID(ctx context.Context, id string) (*DailyVital, error)
	List(ctx context.Context, limit, offset int) ([]*DailyVital, int, error)
	Update(ctx context.Context, v *DailyVital) error
	Delete(ctx context.Context, id string) error
}
