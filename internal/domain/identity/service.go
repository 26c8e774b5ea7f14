package identity

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/curasync/ehr/internal/platform/idgen"
	"github.com/curasync/ehr/internal/platform/kv"
)

type Service struct {
	users       UserRepository
	staffDomain string
	newID       func() string
}

// NewService creates the user service. staffDomain is the email suffix staff
// accounts must use when they register (e.g. "@curasync.com").
func NewService(users UserRepository, staffDomain string) *Service {
	return &Service{
		users:       users,
		staffDomain: staffDomain,
		newID:       func() string { return idgen.Next("") },
	}
}

// StaffDomain returns the configured staff email suffix.
func (s *Service) StaffDomain() string { return s.staffDomain }

// ListUsers returns every user, excluding email index entries.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.users.List(ctx)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// CreateUser stores u after checking that its email is unused. The id is
// kept when supplied, otherwise a timestamp id is assigned.
func (s *Service) CreateUser(ctx context.Context, u *User) error {
	if u.Email == "" {
		return invalid("email is required")
	}
	if !u.Role.Valid() {
		return invalid("invalid role: %q", u.Role)
	}

	_, err := s.users.IDByEmail(ctx, u.Email)
	if err == nil {
		return ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	if u.ID == "" {
		u.ID = s.newID()
	}
	return s.users.Create(ctx, u)
}

// CreateAccount is account creation on behalf of a person (an admin or the
// person themself): the staff email domain rule applies and the account
// always gets a fresh id, whatever the caller supplied.
func (s *Service) CreateAccount(ctx context.Context, u *User) error {
	if err := CheckStaffDomain(u.Role, u.Email, s.staffDomain); err != nil {
		return err
	}
	u.ID = ""
	return s.CreateUser(ctx, u)
}

// Register is self-service sign-up. On top of CreateAccount it requires the
// profile fields the role needs.
func (s *Service) Register(ctx context.Context, u *User) error {
	if err := CheckRegistration(u, s.staffDomain); err != nil {
		return err
	}
	return s.CreateAccount(ctx, u)
}

// UpdateUser merges patch over the stored user. Fields missing from patch are
// kept. Email uniqueness is not re-checked; a changed email moves the index.
func (s *Service) UpdateUser(ctx context.Context, id string, patch json.RawMessage) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousEmail := u.Email

	if err := kv.MergeInto(u, patch); err != nil {
		return nil, invalid("invalid update: %v", err)
	}
	u.ID = id
	if u.Email == "" {
		u.Email = previousEmail
	}
	if !u.Role.Valid() {
		return nil, invalid("invalid role: %q", u.Role)
	}

	if err := s.users.Update(ctx, u, previousEmail); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the user and its email index. Appointments and medical
// records referencing the user are left untouched.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, u)
}

// Login returns the stored user, password included, when email and password
// match exactly. Every mismatch yields ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	id, err := s.users.IDByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.Password != password {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
