package clinical

import "errors"

var (
	ErrRecordNotFound = errors.New("Medical record not found")
	ErrInvalidPatch   = errors.New("invalid update")
)

// MedicalRecord is stored under "medical_record:<id>". None of its fields
// are validated; PDFReport holds an opaque string such as a data URL.
type MedicalRecord struct {
	ID           string `json:"id"`
	PatientID    string `json:"patientId"`
	DoctorID     string `json:"doctorId"`
	Date         string `json:"date"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
	LabResults   string `json:"labResults,omitempty"`
	Notes        string `json:"notes"`
	PDFReport    string `json:"pdfReport,omitempty"`
}
