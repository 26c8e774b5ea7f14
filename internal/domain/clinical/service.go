package clinical

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/curasync/ehr/internal/platform/idgen"
	"github.com/curasync/ehr/internal/platform/kv"
)

type Service struct {
	records RecordRepository
	newID   func() string
}

func NewService(records RecordRepository) *Service {
	return &Service{
		records: records,
		newID:   func() string { return idgen.Next("rec") },
	}
}

func (s *Service) ListRecords(ctx context.Context) ([]*MedicalRecord, error) {
	return s.records.List(ctx)
}

func (s *Service) GetRecord(ctx context.Context, id string) (*MedicalRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *Service) CreateRecord(ctx context.Context, r *MedicalRecord) error {
	if r.ID == "" {
		r.ID = s.newID()
	}
	return s.records.Save(ctx, r)
}

// UpdateRecord merges patch over the stored record; the id cannot change.
func (s *Service) UpdateRecord(ctx context.Context, id string, patch json.RawMessage) (*MedicalRecord, error) {
	r, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := kv.MergeInto(r, patch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	r.ID = id
	if err := s.records.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if _, err := s.records.GetByID(ctx, id); err != nil {
		return err
	}
	return s.records.Delete(ctx, id)
}
