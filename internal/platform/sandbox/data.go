package sandbox

import (
	"github.com/curasync/ehr/internal/domain/clinical"
	"github.com/curasync/ehr/internal/domain/identity"
	"github.com/curasync/ehr/internal/domain/scheduling"
)

// DemoUsers are the ten accounts every fresh store starts with.
func DemoUsers() []*identity.User {
	return []*identity.User{
		{ID: "1", Email: "admin@curasync.com", Password: "admin123", Role: identity.RoleAdmin,
			FirstName: "Sarah", LastName: "Administrator", Phone: "+1-555-0100"},
		{ID: "2", Email: "dr.smith@curasync.com", Password: "doctor123", Role: identity.RoleDoctor,
			FirstName: "John", LastName: "Smith", Phone: "+1-555-0101", Specialization: "Cardiology"},
		{ID: "3", Email: "dr.johnson@curasync.com", Password: "doctor123", Role: identity.RoleDoctor,
			FirstName: "Emily", LastName: "Johnson", Phone: "+1-555-0102", Specialization: "Pediatrics"},
		{ID: "4", Email: "dr.williams@curasync.com", Password: "doctor123", Role: identity.RoleDoctor,
			FirstName: "Michael", LastName: "Williams", Phone: "+1-555-0103", Specialization: "Neurology"},
		{ID: "5", Email: "nurse.davis@curasync.com", Password: "nurse123", Role: identity.RoleNurse,
			FirstName: "Jennifer", LastName: "Davis", Phone: "+1-555-0104", Department: "Emergency"},
		{ID: "6", Email: "robert.brown@gmail.com", Password: "patient123", Role: identity.RolePatient,
			FirstName: "Robert", LastName: "Brown", Phone: "+1-555-0105",
			BloodType: "O+", EmergencyContact: "+1-555-0999", DateOfBirth: "1985-06-15"},
		{ID: "7", Email: "maria.garcia@yahoo.com", Password: "patient123", Role: identity.RolePatient,
			FirstName: "Maria", LastName: "Garcia", Phone: "+1-555-0106",
			BloodType: "A+", EmergencyContact: "+1-555-0998", DateOfBirth: "1992-03-22"},
		{ID: "8", Email: "dr.chen@curasync.com", Password: "doctor123", Role: identity.RoleDoctor,
			FirstName: "David", LastName: "Chen", Phone: "+1-555-0107", Specialization: "Orthopedics"},
		{ID: "9", Email: "nurse.wilson@curasync.com", Password: "nurse123", Role: identity.RoleNurse,
			FirstName: "Amanda", LastName: "Wilson", Phone: "+1-555-0108", Department: "Pediatrics"},
		{ID: "10", Email: "james.anderson@outlook.com", Password: "patient123", Role: identity.RolePatient,
			FirstName: "James", LastName: "Anderson", Phone: "+1-555-0109",
			BloodType: "B+", EmergencyContact: "+1-555-0997", DateOfBirth: "1978-11-30"},
	}
}

func DemoAppointments() []*scheduling.Appointment {
	return []*scheduling.Appointment{
		{ID: "apt1", PatientID: "6", DoctorID: "2", Date: "2025-11-15", Time: "10:00",
			Status: scheduling.StatusScheduled, Reason: "Regular checkup"},
		{ID: "apt2", PatientID: "7", DoctorID: "3", Date: "2025-11-16", Time: "14:00",
			Status: scheduling.StatusScheduled, Reason: "Follow-up consultation"},
		{ID: "apt3", PatientID: "6", DoctorID: "2", Date: "2025-10-15", Time: "09:00",
			Status: scheduling.StatusCompleted, Reason: "Annual physical"},
		{ID: "apt4", PatientID: "10", DoctorID: "8", Date: "2025-11-18", Time: "11:00",
			Status: scheduling.StatusScheduled, Reason: "Knee pain assessment"},
		{ID: "apt5", PatientID: "7", DoctorID: "4", Date: "2025-11-20", Time: "15:30",
			Status: scheduling.StatusScheduled, Reason: "Headache consultation"},
	}
}

func DemoMedicalRecords() []*clinical.MedicalRecord {
	return []*clinical.MedicalRecord{
		{
			ID: "rec1", PatientID: "6", DoctorID: "2", Date: "2025-10-15",
			Diagnosis:    "Hypertension - Stage 1",
			Prescription: "Lisinopril 10mg once daily, Monitor blood pressure regularly",
			LabResults:   "BP: 142/88, Cholesterol: 195 mg/dL, Glucose: 98 mg/dL",
			Notes:        "Patient advised to reduce salt intake and increase physical activity",
		},
		{
			ID: "rec2", PatientID: "7", DoctorID: "3", Date: "2025-10-20",
			Diagnosis:    "Acute Bronchitis",
			Prescription: "Amoxicillin 500mg three times daily for 7 days, Rest and hydration",
			LabResults:   "Chest X-ray: Clear, No signs of pneumonia",
			Notes:        "Patient should return if symptoms persist beyond 7 days",
		},
		{
			ID: "rec3", PatientID: "10", DoctorID: "8", Date: "2025-09-10",
			Diagnosis:    "Osteoarthritis - Right Knee",
			Prescription: "Ibuprofen 400mg as needed, Physical therapy recommended",
			LabResults:   "X-ray: Mild degenerative changes in right knee joint",
			Notes:        "Patient referred to physical therapy, follow-up in 6 weeks",
		},
		{
			ID: "rec4", PatientID: "6", DoctorID: "2", Date: "2025-08-05",
			Diagnosis:    "Routine Physical Examination",
			Prescription: "Continue current medications, Vitamin D supplement",
			LabResults:   "All vitals within normal range, Cholesterol slightly elevated",
			Notes:        "Patient in good health overall, recommended annual checkup",
		},
	}
}

func slot(day int, start, end string) scheduling.Slot {
	return scheduling.Slot{DayOfWeek: day, StartTime: start, EndTime: end}
}

// DemoAvailability is keyed by doctor id.
func DemoAvailability() map[string]*scheduling.Availability {
	return map[string]*scheduling.Availability{
		"2": {
			LeaveDates: []string{"2025-11-25", "2025-11-26"},
			Slots: []scheduling.Slot{
				slot(1, "09:00", "12:00"), slot(1, "14:00", "17:00"),
				slot(3, "09:00", "12:00"), slot(3, "14:00", "17:00"),
				slot(5, "09:00", "12:00"),
			},
		},
		"3": {
			LeaveDates: []string{},
			Slots: []scheduling.Slot{
				slot(2, "10:00", "13:00"), slot(2, "14:00", "18:00"),
				slot(4, "10:00", "13:00"), slot(4, "14:00", "18:00"),
			},
		},
		"4": {
			LeaveDates: []string{"2025-11-22"},
			Slots: []scheduling.Slot{
				slot(1, "08:00", "11:00"), slot(2, "08:00", "11:00"),
				slot(4, "08:00", "11:00"), slot(5, "13:00", "16:00"),
			},
		},
		"8": {
			LeaveDates: []string{},
			Slots: []scheduling.Slot{
				slot(1, "09:00", "12:00"),
				slot(3, "09:00", "12:00"), slot(3, "14:00", "17:00"),
				slot(5, "09:00", "12:00"), slot(5, "14:00", "17:00"),
			},
		},
	}
}
