package identity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("User not found")
	ErrEmailExists        = errors.New("Email already exists")
	ErrInvalidCredentials = errors.New("Invalid email or password")
)

// ValidationError is returned for input the service refuses to store.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Role is the access role of a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RolePatient:
		return true
	}
	return false
}

// IsStaff reports whether r is a staff role (everyone except patients).
func (r Role) IsStaff() bool {
	return r.Valid() && r != RolePatient
}

// User is stored under "user:<id>" with an email index at "user:email:<email>".
// The password is kept and returned in plain text.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Role             Role   `json:"role"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone,omitempty"`
	Specialization   string `json:"specialization,omitempty"`   // doctors
	Department       string `json:"department,omitempty"`       // nurses
	BloodType        string `json:"bloodType,omitempty"`        // patients
	EmergencyContact string `json:"emergencyContact,omitempty"` // patients
	DateOfBirth      string `json:"dateOfBirth,omitempty"`      // patients
}

// Name returns "First Last".
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CheckStaffDomain enforces that staff accounts use the organisation's email
// domain. Patients may register with any address.
func CheckStaffDomain(role Role, email, domain string) error {
	if domain == "" || !role.IsStaff() {
		return nil
	}
	if !strings.HasSuffix(email, domain) {
		return invalid("Staff users must use %s domain", domain)
	}
	return nil
}

// CheckRegistration validates a sign-up form: credentials and names are
// always required, the staff domain rule applies, and each role must fill
// in its own profile fields.
func CheckRegistration(u *User, staffDomain string) error {
	if u.Email == "" || u.Password == "" || u.FirstName == "" || u.LastName == "" {
		return invalid("Please fill in all required fields")
	}
	if !u.Role.Valid() {
		return invalid("invalid role: %q", u.Role)
	}
	if err := CheckStaffDomain(u.Role, u.Email, staffDomain); err != nil {
		return err
	}
	switch u.Role {
	case RolePatient:
		if u.BloodType == "" || u.EmergencyContact == "" || u.DateOfBirth == "" {
			return invalid("Please fill in all patient information")
		}
	case RoleDoctor:
		if u.Specialization == "" {
			return invalid("Please specify your specialization")
		}
	case RoleNurse:
		if u.Department == "" {
			return invalid("Please specify your department")
		}
	}
	return nil
}
