// Package sandbox loads the fixed demo data set into the key-value store and
// can wipe the initialization flag to load it again.
package sandbox

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/curasync/ehr/internal/domain/clinical"
	"github.com/curasync/ehr/internal/domain/identity"
	"github.com/curasync/ehr/internal/domain/scheduling"
	"github.com/curasync/ehr/internal/platform/kv"
)

// InitializedKey marks a store that already holds the demo data.
const InitializedKey = "initialized"

// SeedResult summarizes a seed run.
type SeedResult struct {
	Seeded         bool `json:"seeded"`
	Users          int  `json:"users"`
	Appointments   int  `json:"appointments"`
	MedicalRecords int  `json:"medicalRecords"`
	Availability   int  `json:"availability"`
}

type Seeder struct {
	mu           sync.Mutex
	store        kv.Store
	users        identity.UserRepository
	appointments scheduling.AppointmentRepository
	availability scheduling.AvailabilityRepository
	records      clinical.RecordRepository
	logger       zerolog.Logger
}

func NewSeeder(store kv.Store, logger zerolog.Logger) *Seeder {
	return &Seeder{
		store:        store,
		users:        identity.NewUserRepoKV(store),
		appointments: scheduling.NewAppointmentRepoKV(store),
		availability: scheduling.NewAvailabilityRepoKV(store),
		records:      clinical.NewRecordRepoKV(store),
		logger:       logger,
	}
}

// Initialize writes the demo data unless the initialized flag is already
// set. Running it twice never duplicates records.
func (s *Seeder) Initialize(ctx context.Context) (*SeedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialize(ctx)
}

// Reset clears the initialized flag and seeds again. Seed records are
// restored to their original values; anything created since is kept.
func (s *Seeder) Reset(ctx context.Context) (*SeedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Del(ctx, InitializedKey); err != nil {
		return nil, fmt.Errorf("clear initialized flag: %w", err)
	}
	s.logger.Warn().Msg("demo data reset requested")
	return s.initialize(ctx)
}

func (s *Seeder) initialize(ctx context.Context) (*SeedResult, error) {
	done, err := kv.Exists(ctx, s.store, InitializedKey)
	if err != nil {
		return nil, fmt.Errorf("check initialized flag: %w", err)
	}
	if done {
		return &SeedResult{}, nil
	}

	res := &SeedResult{Seeded: true}
	for _, u := range DemoUsers() {
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		res.Users++
	}
	for _, a := range DemoAppointments() {
		if err := s.appointments.Save(ctx, a); err != nil {
			return nil, fmt.Errorf("seed appointment %s: %w", a.ID, err)
		}
		res.Appointments++
	}
	for _, r := range DemoMedicalRecords() {
		if err := s.records.Save(ctx, r); err != nil {
			return nil, fmt.Errorf("seed medical record %s: %w", r.ID, err)
		}
		res.MedicalRecords++
	}

	avail := DemoAvailability()
	doctorIDs := make([]string, 0, len(avail))
	for id := range avail {
		doctorIDs = append(doctorIDs, id)
	}
	sort.Strings(doctorIDs)
	for _, id := range doctorIDs {
		if err := s.availability.Put(ctx, id, avail[id]); err != nil {
			return nil, fmt.Errorf("seed availability %s: %w", id, err)
		}
		res.Availability++
	}

	if err := kv.SetJSON(ctx, s.store, InitializedKey, "true"); err != nil {
		return nil, fmt.Errorf("set initialized flag: %w", err)
	}

	s.logger.Info().
		Int("users", res.Users).
		Int("appointments", res.Appointments).
		Int("medical_records", res.MedicalRecords).
		Int("availability", res.Availability).
		Msg("demo data initialized")
	return res, nil
}
