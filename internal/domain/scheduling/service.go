package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/curasync/ehr/internal/platform/idgen"
	"github.com/curasync/ehr/internal/platform/kv"
)

type Service struct {
	appointments AppointmentRepository
	availability AvailabilityRepository
	newID        func() string
}

func NewService(appt AppointmentRepository, avail AvailabilityRepository) *Service {
	return &Service{
		appointments: appt,
		availability: avail,
		newID:        func() string { return idgen.Next("apt") },
	}
}

// -- Appointments --

func normalizeStatus(a *Appointment) error {
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validAppointmentStatuses[a.Status] {
		return ErrInvalidStatus
	}
	return nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	return s.appointments.List(ctx)
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// CreateAppointment stores a. Doctor leave and slot conflicts are not
// checked here; see CheckBooking.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if err := normalizeStatus(a); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = s.newID()
	}
	return s.appointments.Save(ctx, a)
}

// UpdateAppointment merges patch over the stored appointment.
func (s *Service) UpdateAppointment(ctx context.Context, id string, patch json.RawMessage) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := kv.MergeInto(a, patch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	a.ID = id
	if err := normalizeStatus(a); err != nil {
		return nil, err
	}
	if err := s.appointments.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	if _, err := s.appointments.GetByID(ctx, id); err != nil {
		return err
	}
	return s.appointments.Delete(ctx, id)
}

// -- Availability --

func (s *Service) ListAvailability(ctx context.Context) (map[string]*Availability, error) {
	return s.availability.All(ctx)
}

func (s *Service) GetAvailability(ctx context.Context, doctorID string) (*Availability, error) {
	return s.availability.Get(ctx, doctorID)
}

// PutAvailability replaces the doctor's availability wholesale.
func (s *Service) PutAvailability(ctx context.Context, doctorID string, a *Availability) error {
	if a.LeaveDates == nil {
		a.LeaveDates = []string{}
	}
	return s.availability.Put(ctx, doctorID, a)
}

// UpdateAvailability merges patch over the stored availability, starting
// from an empty record when the doctor has none yet.
func (s *Service) UpdateAvailability(ctx context.Context, doctorID string, patch json.RawMessage) (*Availability, error) {
	a, err := s.availability.Get(ctx, doctorID)
	if errors.Is(err, ErrAvailabilityNotFound) {
		a, err = &Availability{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := kv.MergeInto(a, patch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if err := s.PutAvailability(ctx, doctorID, a); err != nil {
		return nil, err
	}
	return a, nil
}

// -- Booking advisories --

// CheckBooking lists the conflicts booking a would create: the doctor being
// marked unavailable or on leave that day, a time outside the doctor's
// weekly slots, or another scheduled appointment with the same doctor at the
// same date and time. A doctor with no availability record yields no
// availability warnings.
func (s *Service) CheckBooking(ctx context.Context, a *Appointment) ([]BookingWarning, error) {
	warnings := make([]BookingWarning, 0)

	day, dateErr := time.Parse(DateLayout, a.Date)
	clock, timeErr := time.Parse(TimeLayout, a.Time)
	if dateErr != nil || timeErr != nil {
		warnings = append(warnings, BookingWarning{
			Code:    WarnInvalidDate,
			Message: fmt.Sprintf("cannot interpret %q %q as a date and time", a.Date, a.Time),
		})
	}

	avail, err := s.availability.Get(ctx, a.DoctorID)
	switch {
	case errors.Is(err, ErrAvailabilityNotFound):
		avail = nil
	case err != nil:
		return nil, err
	}

	if avail != nil {
		if avail.IsAvailable != nil && !*avail.IsAvailable {
			warnings = append(warnings, BookingWarning{Code: WarnUnavailable, Message: "doctor is marked unavailable"})
		}
		if avail.OnLeave(a.Date) {
			warnings = append(warnings, BookingWarning{Code: WarnOnLeave, Message: "doctor is on leave on " + a.Date})
		}
		if dateErr == nil && timeErr == nil && len(avail.Slots) > 0 && !avail.Covers(day.Weekday(), clock) {
			warnings = append(warnings, BookingWarning{
				Code:    WarnOutsideSlots,
				Message: fmt.Sprintf("%s %s is outside the doctor's hours", day.Weekday(), a.Time),
			})
		}
	}

	existing, err := s.appointments.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.ID != a.ID && other.DoctorID == a.DoctorID && other.Status == StatusScheduled &&
			other.Date == a.Date && other.Time == a.Time {
			warnings = append(warnings, BookingWarning{
				Code:    WarnDoubleBooked,
				Message: "doctor already has appointment " + other.ID + " at this time",
			})
			break
		}
	}
	return warnings, nil
}
