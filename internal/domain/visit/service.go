package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service applies visit-list semantics on top of the Repository: identifier
// assignment at save time, derived-field recomputation, and the role
// post-processing applied after an artifact import.
type Service struct {
	repo            Repository
	followUpService string
	followUpCharge  string
}

func NewService(repo Repository, followUpService, followUpCharge string) *Service {
	return &Service{
		repo:            repo,
		followUpService: followUpService,
		followUpCharge:  followUpCharge,
	}
}

// Save persists the record as a new visit. The visit identifier is
// assigned here and only here; whatever identifier the record carried in
// (a re-saved follow-up, an import) is discarded so identifiers are never
// reused across saves.
func (s *Service) Save(ctx context.Context, rec *Record) (*StoredVisit, error) {
	if rec.PatientName == "" {
		return nil, fmt.Errorf("patient name is required")
	}
	rec.Normalize()
	rec.VisitID = uuid.New().String()
	for i := range rec.Medications {
		if rec.Medications[i].ID == "" {
			rec.Medications[i].ID = uuid.New().String()
		}
	}
	for i := range rec.AdviceItems {
		if rec.AdviceItems[i].ID == "" {
			rec.AdviceItems[i].ID = uuid.New().String()
		}
	}

	sv := &StoredVisit{
		ID:          rec.VisitID,
		PatientName: rec.PatientName,
		SavedAt:     time.Now().UTC(),
		Record:      rec,
	}
	if err := s.repo.Save(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *Service) Get(ctx context.Context, id string) (*StoredVisit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*StoredVisit, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update replaces the record of an existing visit in place. The stored
// visit keeps its identifier; the embedded record is re-normalized.
func (s *Service) Update(ctx context.Context, id string, rec *Record) (*StoredVisit, error) {
	sv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Normalize()
	rec.VisitID = sv.ID
	sv.Record = rec
	sv.PatientName = rec.PatientName
	if err := s.repo.Update(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// LoadForNewVisit returns a copy of a saved record prepared for a fresh
// encounter: the visit identifier is cleared and stays empty until the
// next Save assigns a new one.
func (s *Service) LoadForNewVisit(ctx context.Context, id string) (*Record, error) {
	sv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := sv.Record.Clone()
	rec.VisitID = ""
	return rec, nil
}

// PrepareFollowUp applies the doctor-side post-processing to an imported
// record: the visit identifier is cleared and the billing line defaults to
// the follow-up service. All clinical fields are kept as imported.
func (s *Service) PrepareFollowUp(rec *Record) {
	rec.VisitID = ""
	rec.ServiceName = s.followUpService
	rec.Charge = s.followUpCharge
	rec.Quantity = "1"
	rec.Normalize()
}
