package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curasync/ehr/internal/domain/identity"
	"github.com/curasync/ehr/internal/domain/scheduling"
	"github.com/curasync/ehr/internal/platform/kv"
)

func countPrefix(t *testing.T, store kv.Store, prefix string) int {
	t.Helper()
	entries, err := store.GetByPrefix(context.Background(), prefix)
	require.NoError(t, err)
	return len(entries)
}

func TestSeeder_Initialize(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	s := NewSeeder(store, zerolog.Nop())

	res, err := s.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{Seeded: true, Users: 10, Appointments: 5, MedicalRecords: 4, Availability: 4}, res)

	// Ten records plus ten email index entries.
	assert.Equal(t, 20, countPrefix(t, store, "user:"))
	assert.Equal(t, 10, countPrefix(t, store, "user:email:"))
	assert.Equal(t, 5, countPrefix(t, store, "appointment:"))
	assert.Equal(t, 4, countPrefix(t, store, "medical_record:"))
	assert.Equal(t, 4, countPrefix(t, store, "doctor_availability:"))

	ok, err := kv.Exists(ctx, store, InitializedKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeeder_InitializeTwiceDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	s := NewSeeder(store, zerolog.Nop())

	_, err := s.Initialize(ctx)
	require.NoError(t, err)
	before := store.Len()

	res, err := s.Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, res.Seeded)
	assert.Equal(t, before, store.Len())
}

func TestSeeder_InitializeRespectsExistingFlag(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, kv.SetJSON(ctx, store, InitializedKey, "true"))

	res, err := NewSeeder(store, zerolog.Nop()).Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, res.Seeded)
	assert.Equal(t, 1, store.Len())
}

func TestSeeder_DemoLogins(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	_, err := NewSeeder(store, zerolog.Nop()).Initialize(ctx)
	require.NoError(t, err)

	svc := identity.NewService(identity.NewUserRepoKV(store), "@curasync.com")
	cases := map[string]string{
		"admin@curasync.com":         "admin123",
		"dr.smith@curasync.com":      "doctor123",
		"nurse.davis@curasync.com":   "nurse123",
		"james.anderson@outlook.com": "patient123",
	}
	for email, pw := range cases {
		u, err := svc.Login(ctx, email, pw)
		require.NoError(t, err, email)
		assert.Equal(t, email, u.Email)
	}
}

func TestSeeder_ResetRestoresSeedAndKeepsNewRecords(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	s := NewSeeder(store, zerolog.Nop())
	_, err := s.Initialize(ctx)
	require.NoError(t, err)

	appts := scheduling.NewService(scheduling.NewAppointmentRepoKV(store), scheduling.NewAvailabilityRepoKV(store))
	_, err = appts.UpdateAppointment(ctx, "apt1", json.RawMessage(`{"status":"cancelled"}`))
	require.NoError(t, err)
	extra := &scheduling.Appointment{PatientID: "6", DoctorID: "3", Date: "2025-12-02", Time: "10:00"}
	require.NoError(t, appts.CreateAppointment(ctx, extra))

	res, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.True(t, res.Seeded)

	apt1, err := appts.GetAppointment(ctx, "apt1")
	require.NoError(t, err)
	assert.Equal(t, scheduling.StatusScheduled, apt1.Status)

	_, err = appts.GetAppointment(ctx, extra.ID)
	assert.NoError(t, err, "records created after seeding survive a reset")
	assert.Equal(t, 6, countPrefix(t, store, "appointment:"))
}

func TestSeedHandler_Reset(t *testing.T) {
	store := kv.NewMemoryStore()
	h := NewSeedHandler(NewSeeder(store, zerolog.Nop()))

	e := echo.New()
	h.RegisterRoutes(e.Group(""))

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Database reset and re-initialized with 10 demo users", body.Message)
	assert.Equal(t, 5, countPrefix(t, store, "appointment:"))
}

func TestDemoData_Consistency(t *testing.T) {
	users := map[string]*identity.User{}
	for _, u := range DemoUsers() {
		users[u.ID] = u
	}
	for _, a := range DemoAppointments() {
		assert.Equal(t, identity.RolePatient, users[a.PatientID].Role, a.ID)
		assert.Equal(t, identity.RoleDoctor, users[a.DoctorID].Role, a.ID)
	}
	for _, r := range DemoMedicalRecords() {
		assert.Equal(t, identity.RolePatient, users[r.PatientID].Role, r.ID)
		assert.Equal(t, identity.RoleDoctor, users[r.DoctorID].Role, r.ID)
	}
	for id := range DemoAvailability() {
		assert.Equal(t, identity.RoleDoctor, users[id].Role, id)
	}
}
