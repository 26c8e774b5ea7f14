package dashboard

import (
	"errors"

	"github.com/curasync/ehr/internal/domain/clinical"
	"github.com/curasync/ehr/internal/domain/identity"
	"github.com/curasync/ehr/internal/domain/scheduling"
)

// ErrNotOwner is returned when a user acts on a record that belongs to
// someone else.
var ErrNotOwner = errors.New("record belongs to another user")

type Stats struct {
	TotalUsers   int `json:"totalUsers"`
	Doctors      int `json:"doctors"`
	Nurses       int `json:"nurses"`
	Patients     int `json:"patients"`
	Appointments int `json:"appointments"`
}

type AdminView struct {
	Role  string           `json:"role"`
	Users []*identity.User `json:"users"`
	Stats Stats            `json:"stats"`
}

type DoctorView struct {
	Role           string                    `json:"role"`
	Patients       []*identity.User          `json:"patients"`
	Scheduled      []*scheduling.Appointment `json:"scheduled"`
	Completed      []*scheduling.Appointment `json:"completed"`
	MedicalRecords []*clinical.MedicalRecord `json:"medicalRecords"`
	Availability   *scheduling.Availability  `json:"availability"`
}

type NurseView struct {
	Role              string                    `json:"role"`
	Patients          []*identity.User          `json:"patients"`
	Appointments      []*scheduling.Appointment `json:"appointments"`
	TodayAppointments []*scheduling.Appointment `json:"todayAppointments"`
	MedicalRecords    []*clinical.MedicalRecord `json:"medicalRecords"`
	Availability      *scheduling.Availability  `json:"availability"`
}

type PatientView struct {
	Role           string                              `json:"role"`
	Doctors        []*identity.User                    `json:"doctors"`
	Upcoming       []*scheduling.Appointment           `json:"upcoming"`
	Past           []*scheduling.Appointment           `json:"past"`
	MedicalRecords []*clinical.MedicalRecord           `json:"medicalRecords"`
	Availability   map[string]*scheduling.Availability `json:"availability"`
}

// RecordInput is what a doctor or nurse submits for a medical record. The
// author and date are filled in by the server.
type RecordInput struct {
	PatientID    string `json:"patientId"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
	LabResults   string `json:"labResults,omitempty"`
	Notes        string `json:"notes"`
	PDFReport    string `json:"pdfReport,omitempty"`
}

type BookingInput struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"reason"`
}

// Booking is the result of a patient booking: the stored appointment and
// any advisory conflicts it created.
type Booking struct {
	Appointment *scheduling.Appointment     `json:"appointment"`
	Warnings    []scheduling.BookingWarning `json:"warnings"`
}

type LeaveInput struct {
	LeaveDates []string `json:"leaveDates"`
}

type NurseAvailabilityInput struct {
	LeaveDates  []string `json:"leaveDates"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
}
