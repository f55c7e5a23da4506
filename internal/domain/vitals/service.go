package vitals

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create assigns the immutable identifier and persists the entry.
func (s *Service) Create(ctx context.Context, v *DailyVital) (*DailyVital, error) {
	v.ID = uuid.New().String()
	v.RecordedAt = time.Now().UTC()
	if v.DisplayTime == "" {
		v.DisplayTime = v.RecordedAt.Format("02 Jan 2006 15:04")
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id string) (*DailyVital, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*DailyVital, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update replaces every field except the identifier and creation time.
func (s *Service) Update(ctx context.Context, id string, in *DailyVital) (*DailyVital, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ID = existing.ID
	in.RecordedAt = existing.RecordedAt
	if err := s.repo.Update(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
