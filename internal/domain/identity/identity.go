// Package identity holds the small per-role profile that persists across
// sessions: the patient's self-entered contact details and a linked
// relative. It is loaded at startup and written on every change, with
// default-on-missing semantics and no migration concern.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/homevisit/homevisit/internal/domain/visit"
)

var ErrNotFound = errors.New("identity profile not found")

// Profile is the locally persisted identity for one role.
type Profile struct {
	Role          string    `json:"role"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	RelativeName  string    `json:"relative_name"`
	RelativePhone string    `json:"relative_phone"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Repository interface {
	Get(ctx context.Context, role string) (*Profile, error)
	Put(ctx context.Context, p *Profile) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored profile for the role, or an empty profile when
// none has been written yet.
func (s *Service) Get(ctx context.Context, role string) (*Profile, error) {
	p, err := s.repo.Get(ctx, role)
	if errors.Is(err, ErrNotFound) {
		return &Profile{Role: role}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Put(ctx context.Context, p *Profile) error {
	p.UpdatedAt = time.Now().UTC()
	return s.repo.Put(ctx, p)
}

// Adopt applies the patient-side post-processing of an artifact import:
// contact fields embedded in the record fill any profile field not already
// set. The profile is persisted only when something changed; the record
// itself is reference data and is never modified.
func (s *Service) Adopt(ctx context.Context, role string, rec *visit.Record) (*Profile, bool, error) {
	p, err := s.Get(ctx, role)
	if err != nil {
		return nil, false, err
	}

	changed := false
	adopt := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	adopt(&p.Name, rec.PatientName)
	adopt(&p.Phone, rec.Phone)
	adopt(&p.Email, rec.Email)
	adopt(&p.Address, rec.Address)

	if changed {
		if err := s.Put(ctx, p); err != nil {
			return nil, false, err
		}
	}
	return p, changed, nil
}
