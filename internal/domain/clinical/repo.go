package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/curasync/ehr/internal/platform/kv"
)

type RecordRepository interface {
	Save(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id string) (*MedicalRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*MedicalRecord, error)
}

const recordPrefix = "medical_record:"

type recordRepoKV struct{ store kv.Store }

func NewRecordRepoKV(store kv.Store) RecordRepository { return &recordRepoKV{store: store} }

func (r *recordRepoKV) Save(ctx context.Context, rec *MedicalRecord) error {
	return kv.SetJSON(ctx, r.store, recordPrefix+rec.ID, rec)
}

func (r *recordRepoKV) GetByID(ctx context.Context, id string) (*MedicalRecord, error) {
	var rec MedicalRecord
	err := kv.GetJSON(ctx, r.store, recordPrefix+id, &rec)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get medical record %s: %w", id, err)
	}
	return &rec, nil
}

func (r *recordRepoKV) Delete(ctx context.Context, id string) error {
	return r.store.Del(ctx, recordPrefix+id)
}

func (r *recordRepoKV) List(ctx context.Context) ([]*MedicalRecord, error) {
	entries, err := r.store.GetByPrefix(ctx, recordPrefix)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	out := make([]*MedicalRecord, 0, len(entries))
	for _, e := range entries {
		var rec MedicalRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, &rec)
	}
	return out, nil
}
