package scheduling

import (
	"errors"
	"time"
)

var (
	ErrAppointmentNotFound  = errors.New("Appointment not found")
	ErrAvailabilityNotFound = errors.New("Availability not found")
	ErrInvalidStatus        = errors.New("invalid appointment status")
	ErrInvalidPatch         = errors.New("invalid update")
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validAppointmentStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Layouts of the date and time strings stored on appointments.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment is stored under "appointment:<id>". Patient and doctor ids are
// not checked against the user collection.
type Appointment struct {
	ID        string `json:"id"`
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

// Slot is a weekly window in which a doctor sees patients. DayOfWeek runs
// from 0 (Sunday) to 6 (Saturday).
type Slot struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Availability is stored under "doctor_availability:<doctorId>". Nurses use
// the same record for their own leave.
type Availability struct {
	LeaveDates  []string `json:"leaveDates"`
	Slots       []Slot   `json:"slots,omitempty"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
}

// OnLeave reports whether date is one of the leave dates.
func (a *Availability) OnLeave(date string) bool {
	for _, d := range a.LeaveDates {
		if d == date {
			return true
		}
	}
	return false
}

// Covers reports whether the weekday and clock time fall inside a slot.
// Slot ends are exclusive.
func (a *Availability) Covers(day time.Weekday, clock time.Time) bool {
	for _, s := range a.Slots {
		if s.DayOfWeek != int(day) {
			continue
		}
		start, err1 := time.Parse(TimeLayout, s.StartTime)
		end, err2 := time.Parse(TimeLayout, s.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if !clock.Before(start) && clock.Before(end) {
			return true
		}
	}
	return false
}

// Warning codes reported by CheckBooking.
const (
	WarnInvalidDate  = "invalid_date"
	WarnUnavailable  = "doctor_unavailable"
	WarnOnLeave      = "on_leave"
	WarnOutsideSlots = "outside_slots"
	WarnDoubleBooked = "double_booked"
)

// BookingWarning describes a conflict a booking would create. Warnings are
// advisory; the booking itself is never refused.
type BookingWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
