package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/curasync/ehr/internal/platform/kv"
)

const (
	appointmentPrefix  = "appointment:"
	availabilityPrefix = "doctor_availability:"
)

type appointmentRepoKV struct{ store kv.Store }

func NewAppointmentRepoKV(store kv.Store) AppointmentRepository {
	return &appointmentRepoKV{store: store}
}

func (r *appointmentRepoKV) Save(ctx context.Context, a *Appointment) error {
	return kv.SetJSON(ctx, r.store, appointmentPrefix+a.ID, a)
}

func (r *appointmentRepoKV) GetByID(ctx context.Context, id string) (*Appointment, error) {
	var a Appointment
	err := kv.GetJSON(ctx, r.store, appointmentPrefix+id, &a)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return &a, nil
}

func (r *appointmentRepoKV) Delete(ctx context.Context, id string) error {
	return r.store.Del(ctx, appointmentPrefix+id)
}

func (r *appointmentRepoKV) List(ctx context.Context) ([]*Appointment, error) {
	entries, err := r.store.GetByPrefix(ctx, appointmentPrefix)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	out := make([]*Appointment, 0, len(entries))
	for _, e := range entries {
		var a Appointment
		if err := json.Unmarshal(e.Value, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, &a)
	}
	return out, nil
}

type availabilityRepoKV struct{ store kv.Store }

func NewAvailabilityRepoKV(store kv.Store) AvailabilityRepository {
	return &availabilityRepoKV{store: store}
}

func (r *availabilityRepoKV) Get(ctx context.Context, doctorID string) (*Availability, error) {
	var a Availability
	err := kv.GetJSON(ctx, r.store, availabilityPrefix+doctorID, &a)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrAvailabilityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get availability %s: %w", doctorID, err)
	}
	return &a, nil
}

func (r *availabilityRepoKV) Put(ctx context.Context, doctorID string, a *Availability) error {
	return kv.SetJSON(ctx, r.store, availabilityPrefix+doctorID, a)
}

func (r *availabilityRepoKV) All(ctx context.Context) (map[string]*Availability, error) {
	entries, err := r.store.GetByPrefix(ctx, availabilityPrefix)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	out := make(map[string]*Availability, len(entries))
	for _, e := range entries {
		var a Availability
		if err := json.Unmarshal(e.Value, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out[strings.TrimPrefix(e.Key, availabilityPrefix)] = &a
	}
	return out, nil
}
