// Package dashboard computes the per-role views of the shared collections
// and carries out the actions each role's dashboard offers.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/curasync/ehr/internal/domain/clinical"
	"github.com/curasync/ehr/internal/domain/identity"
	"github.com/curasync/ehr/internal/domain/scheduling"
	"github.com/curasync/ehr/internal/platform/kv"
)

type Service struct {
	users      *identity.Service
	scheduling *scheduling.Service
	clinical   *clinical.Service
	now        func() time.Time
}

func NewService(users *identity.Service, sched *scheduling.Service, clin *clinical.Service) *Service {
	return &Service{users: users, scheduling: sched, clinical: clin, now: time.Now}
}

// today is the current UTC date, the format appointments and records use.
func (s *Service) today() string {
	return s.now().UTC().Format(scheduling.DateLayout)
}

func usersWithRole(users []*identity.User, role identity.Role) []*identity.User {
	out := make([]*identity.User, 0)
	for _, u := range users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

func filterAppointments(list []*scheduling.Appointment, keep func(*scheduling.Appointment) bool) []*scheduling.Appointment {
	out := make([]*scheduling.Appointment, 0)
	for _, a := range list {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func filterRecords(list []*clinical.MedicalRecord, keep func(*clinical.MedicalRecord) bool) []*clinical.MedicalRecord {
	out := make([]*clinical.MedicalRecord, 0)
	for _, r := range list {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) ownAvailability(ctx context.Context, userID string) (*scheduling.Availability, error) {
	a, err := s.scheduling.GetAvailability(ctx, userID)
	if errors.Is(err, scheduling.ErrAvailabilityNotFound) {
		return nil, nil
	}
	return a, err
}

// -- Views --

// View returns the dashboard for the given user and role.
func (s *Service) View(ctx context.Context, userID string, role identity.Role) (interface{}, error) {
	switch role {
	case identity.RoleAdmin:
		return s.AdminView(ctx)
	case identity.RoleDoctor:
		return s.DoctorView(ctx, userID)
	case identity.RoleNurse:
		return s.NurseView(ctx, userID)
	case identity.RolePatient:
		return s.PatientView(ctx, userID)
	}
	return nil, fmt.Errorf("no dashboard for role %q", role)
}

func (s *Service) AdminView(ctx context.Context) (*AdminView, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := s.scheduling.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminView{
		Role:  string(identity.RoleAdmin),
		Users: users,
		Stats: Stats{
			TotalUsers:   len(users),
			Doctors:      len(usersWithRole(users, identity.RoleDoctor)),
			Nurses:       len(usersWithRole(users, identity.RoleNurse)),
			Patients:     len(usersWithRole(users, identity.RolePatient)),
			Appointments: len(appts),
		},
	}, nil
}

func (s *Service) DoctorView(ctx context.Context, doctorID string) (*DoctorView, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := s.scheduling.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.clinical.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	avail, err := s.ownAvailability(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	mine := filterAppointments(appts, func(a *scheduling.Appointment) bool { return a.DoctorID == doctorID })
	return &DoctorView{
		Role:     string(identity.RoleDoctor),
		Patients: usersWithRole(users, identity.RolePatient),
		Scheduled: filterAppointments(mine, func(a *scheduling.Appointment) bool {
			return a.Status == scheduling.StatusScheduled
		}),
		Completed: filterAppointments(mine, func(a *scheduling.Appointment) bool {
			return a.Status == scheduling.StatusCompleted
		}),
		MedicalRecords: filterRecords(records, func(r *clinical.MedicalRecord) bool { return r.DoctorID == doctorID }),
		Availability:   avail,
	}, nil
}

func (s *Service) NurseView(ctx context.Context, nurseID string) (*NurseView, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := s.scheduling.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.clinical.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	avail, err := s.ownAvailability(ctx, nurseID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	return &NurseView{
		Role:              string(identity.RoleNurse),
		Patients:          usersWithRole(users, identity.RolePatient),
		Appointments:      appts,
		TodayAppointments: filterAppointments(appts, func(a *scheduling.Appointment) bool { return a.Date == today }),
		MedicalRecords:    records,
		Availability:      avail,
	}, nil
}

func (s *Service) PatientView(ctx context.Context, patientID string) (*PatientView, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := s.scheduling.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.clinical.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	avail, err := s.scheduling.ListAvailability(ctx)
	if err != nil {
		return nil, err
	}

	mine := filterAppointments(appts, func(a *scheduling.Appointment) bool { return a.PatientID == patientID })
	return &PatientView{
		Role:    string(identity.RolePatient),
		Doctors: usersWithRole(users, identity.RoleDoctor),
		Upcoming: filterAppointments(mine, func(a *scheduling.Appointment) bool {
			return a.Status == scheduling.StatusScheduled
		}),
		Past: filterAppointments(mine, func(a *scheduling.Appointment) bool {
			return a.Status == scheduling.StatusCompleted
		}),
		MedicalRecords: filterRecords(records, func(r *clinical.MedicalRecord) bool { return r.PatientID == patientID }),
		Availability:   avail,
	}, nil
}

// -- Admin actions --

// CreateUser adds an account under a freshly minted id; staff roles must use
// the staff email domain.
func (s *Service) CreateUser(ctx context.Context, u *identity.User) error {
	return s.users.CreateAccount(ctx, u)
}

// UpdateUser applies patch after checking that the resulting role and email
// still satisfy the staff domain rule.
func (s *Service) UpdateUser(ctx context.Context, id string, patch json.RawMessage) (*identity.User, error) {
	current, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	preview := *current
	if err := kv.MergeInto(&preview, patch); err != nil {
		return nil, &identity.ValidationError{Msg: "invalid update: " + err.Error()}
	}
	if preview.Email == "" {
		preview.Email = current.Email
	}
	if err := identity.CheckStaffDomain(preview.Role, preview.Email, s.users.StaffDomain()); err != nil {
		return nil, err
	}
	return s.users.UpdateUser(ctx, id, patch)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.DeleteUser(ctx, id)
}

// -- Doctor and nurse actions --

// AddRecord stores a new medical record authored by authorID today.
func (s *Service) AddRecord(ctx context.Context, authorID string, in RecordInput) (*clinical.MedicalRecord, error) {
	r := &clinical.MedicalRecord{
		PatientID:    in.PatientID,
		DoctorID:     authorID,
		Date:         s.today(),
		Diagnosis:    in.Diagnosis,
		Prescription: in.Prescription,
		LabResults:   in.LabResults,
		Notes:        in.Notes,
		PDFReport:    in.PDFReport,
	}
	if err := s.clinical.CreateRecord(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRecord rewrites the record's clinical fields, restamping the author
// and date. With ownOnly set, only the record's author may edit it.
func (s *Service) UpdateRecord(ctx context.Context, authorID, id string, in RecordInput, ownOnly bool) (*clinical.MedicalRecord, error) {
	current, err := s.clinical.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownOnly && current.DoctorID != authorID {
		return nil, ErrNotOwner
	}
	patientID := in.PatientID
	if patientID == "" {
		patientID = current.PatientID
	}

	patch, err := json.Marshal(map[string]string{
		"patientId":    patientID,
		"doctorId":     authorID,
		"date":         s.today(),
		"diagnosis":    in.Diagnosis,
		"prescription": in.Prescription,
		"labResults":   in.LabResults,
		"notes":        in.Notes,
		"pdfReport":    in.PDFReport,
	})
	if err != nil {
		return nil, err
	}
	return s.clinical.UpdateRecord(ctx, id, patch)
}

// cleanDates trims entries and drops blanks.
func cleanDates(dates []string) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// UpdateLeave replaces the doctor's leave dates and keeps the rest of their
// availability.
func (s *Service) UpdateLeave(ctx context.Context, doctorID string, dates []string) (*scheduling.Availability, error) {
	patch, err := json.Marshal(map[string][]string{"leaveDates": cleanDates(dates)})
	if err != nil {
		return nil, err
	}
	return s.scheduling.UpdateAvailability(ctx, doctorID, patch)
}

// UpdateNurseAvailability overwrites the nurse's availability with the given
// leave dates and flag. The flag defaults to the stored value, then true.
func (s *Service) UpdateNurseAvailability(ctx context.Context, nurseID string, in NurseAvailabilityInput) (*scheduling.Availability, error) {
	isAvailable := in.IsAvailable
	if isAvailable == nil {
		current, err := s.ownAvailability(ctx, nurseID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.IsAvailable != nil {
			isAvailable = current.IsAvailable
		} else {
			yes := true
			isAvailable = &yes
		}
	}

	a := &scheduling.Availability{LeaveDates: cleanDates(in.LeaveDates), IsAvailable: isAvailable}
	if err := s.scheduling.PutAvailability(ctx, nurseID, a); err != nil {
		return nil, err
	}
	return a, nil
}

// -- Patient actions --

// Book schedules an appointment for the patient. Conflicts with the
// doctor's leave, hours or other bookings are reported, not refused.
func (s *Service) Book(ctx context.Context, patientID string, in BookingInput) (*Booking, error) {
	a := &scheduling.Appointment{
		PatientID: patientID,
		DoctorID:  in.DoctorID,
		Date:      in.Date,
		Time:      in.Time,
		Status:    scheduling.StatusScheduled,
		Reason:    in.Reason,
	}
	warnings, err := s.scheduling.CheckBooking(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := s.scheduling.CreateAppointment(ctx, a); err != nil {
		return nil, err
	}
	return &Booking{Appointment: a, Warnings: warnings}, nil
}

// Cancel deletes one of the patient's own appointments.
func (s *Service) Cancel(ctx context.Context, patientID, appointmentID string) error {
	a, err := s.scheduling.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if a.PatientID != patientID {
		return ErrNotOwner
	}
	return s.scheduling.DeleteAppointment(ctx, appointmentID)
}
