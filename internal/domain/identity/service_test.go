package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/curasync/ehr/internal/platform/kv"
)

func newTestService() (*Service, *kv.MemoryStore) {
	store := kv.NewMemoryStore()
	svc := NewService(NewUserRepoKV(store), "@curasync.com")
	n := 100
	svc.newID = func() string {
		n++
		return strconv.Itoa(n)
	}
	return svc, store
}

func createPatient(t *testing.T, svc *Service, email string) *User {
	t.Helper()
	u := &User{Email: email, Password: "pw", Role: RolePatient, FirstName: "Robert", LastName: "Brown"}
	if err := svc.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateUser(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	u := createPatient(t, svc, "robert@example.com")

	if u.ID != "101" {
		t.Errorf("expected generated id 101, got %q", u.ID)
	}
	var indexed string
	if err := kv.GetJSON(ctx, store, "user:email:robert@example.com", &indexed); err != nil {
		t.Fatalf("expected email index: %v", err)
	}
	if indexed != u.ID {
		t.Errorf("expected index to point at %s, got %s", u.ID, indexed)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].Email != "robert@example.com" {
		t.Errorf("expected new user in list, got %+v", users)
	}
}

func TestCreateUser_KeepsSuppliedID(t *testing.T) {
	svc, _ := newTestService()
	u := &User{ID: "6", Email: "robert@example.com", Role: RolePatient}
	if err := svc.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != "6" {
		t.Errorf("expected id 6, got %q", u.ID)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	createPatient(t, svc, "robert@example.com")

	err := svc.CreateUser(context.Background(), &User{Email: "robert@example.com", Role: RolePatient})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if err.Error() != "Email already exists" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newTestService()
	tests := []struct {
		name string
		user User
	}{
		{"missing email", User{Role: RolePatient}},
		{"unknown role", User{Email: "x@example.com", Role: "surgeon"}},
		{"empty role", User{Email: "x@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			err := svc.CreateUser(context.Background(), &u)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestListUsers_ExcludesEmailIndex(t *testing.T) {
	svc, store := newTestService()
	createPatient(t, svc, "a@example.com")
	createPatient(t, svc, "b@example.com")

	if store.Len() != 4 {
		t.Fatalf("expected 2 records and 2 index keys, got %d keys", store.Len())
	}
	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestUpdateUser_Merges(t *testing.T) {
	svc, _ := newTestService()
	u := createPatient(t, svc, "robert@example.com")

	updated, err := svc.UpdateUser(context.Background(), u.ID, json.RawMessage(`{"phone":"+1-555-0105","id":"999"}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != "+1-555-0105" {
		t.Errorf("expected phone to change, got %q", updated.Phone)
	}
	if updated.FirstName != "Robert" || updated.Password != "pw" {
		t.Errorf("expected unspecified fields kept, got %+v", updated)
	}
	if updated.ID != u.ID {
		t.Errorf("expected id to stay %s, got %s", u.ID, updated.ID)
	}
}

func TestUpdateUser_MovesEmailIndex(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	u := createPatient(t, svc, "old@example.com")

	if _, err := svc.UpdateUser(ctx, u.ID, json.RawMessage(`{"email":"new@example.com"}`)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if ok, _ := kv.Exists(ctx, store, "user:email:old@example.com"); ok {
		t.Error("expected old index entry removed")
	}
	if ok, _ := kv.Exists(ctx, store, "user:email:new@example.com"); !ok {
		t.Error("expected new index entry written")
	}
	if _, err := svc.Login(ctx, "new@example.com", "pw"); err != nil {
		t.Errorf("expected login with new email, got %v", err)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UpdateUser(context.Background(), "404", json.RawMessage(`{"phone":"1"}`))
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUser_InvalidPatch(t *testing.T) {
	svc, _ := newTestService()
	u := createPatient(t, svc, "robert@example.com")

	for _, patch := range []string{`not json`, `{"role":"surgeon"}`} {
		_, err := svc.UpdateUser(context.Background(), u.ID, json.RawMessage(patch))
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("patch %s: expected ValidationError, got %v", patch, err)
		}
	}
}

func TestDeleteUser(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	u := createPatient(t, svc, "robert@example.com")
	// An appointment owned by the user is not touched.
	if err := store.Set(ctx, "appointment:apt1", json.RawMessage(`{"patientId":"`+u.ID+`"}`)); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetUser(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected user gone, got %v", err)
	}
	if ok, _ := kv.Exists(ctx, store, "user:email:robert@example.com"); ok {
		t.Error("expected email index removed")
	}
	if ok, _ := kv.Exists(ctx, store, "appointment:apt1"); !ok {
		t.Error("expected appointment to survive user deletion")
	}
	if err := svc.DeleteUser(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	createPatient(t, svc, "robert@example.com")
	// Index entry pointing at a missing record.
	if err := kv.SetJSON(ctx, store, "user:email:ghost@example.com", "77"); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Login(ctx, "robert@example.com", "pw")
	if err != nil {
		t.Fatalf("expected login to succeed: %v", err)
	}
	if u.Password != "pw" {
		t.Error("expected full record including password")
	}

	failures := []struct{ email, password string }{
		{"robert@example.com", "PW"},
		{"robert@example.com", ""},
		{"nobody@example.com", "pw"},
		{"ghost@example.com", "pw"},
	}
	for _, f := range failures {
		if _, err := svc.Login(ctx, f.email, f.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%q, %q): expected ErrInvalidCredentials, got %v", f.email, f.password, err)
		}
	}
}

func registration(role Role, email string) *User {
	u := &User{Email: email, Password: "secret", Role: role, FirstName: "Sam", LastName: "Reyes"}
	switch role {
	case RolePatient:
		u.BloodType, u.EmergencyContact, u.DateOfBirth = "O+", "+1-555-0100", "1990-04-12"
	case RoleDoctor:
		u.Specialization = "Cardiology"
	case RoleNurse:
		u.Department = "Emergency"
	}
	return u
}

func TestRegister_StaffDomain(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	err := svc.Register(ctx, registration(RoleDoctor, "doc@gmail.com"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Msg != "Staff users must use @curasync.com domain" {
		t.Errorf("unexpected message %q", ve.Msg)
	}

	if err := svc.Register(ctx, registration(RoleDoctor, "doc@curasync.com")); err != nil {
		t.Errorf("expected staff registration to succeed: %v", err)
	}
	if err := svc.Register(ctx, registration(RolePatient, "pat@gmail.com")); err != nil {
		t.Errorf("expected patient registration to succeed: %v", err)
	}
}

func TestRegister_RequiredFields(t *testing.T) {
	tests := []struct {
		name string
		user func() *User
		want string
	}{
		{"missing password", func() *User {
			u := registration(RolePatient, "pat@gmail.com")
			u.Password = ""
			return u
		}, "Please fill in all required fields"},
		{"missing names", func() *User {
			u := registration(RoleAdmin, "ops@curasync.com")
			u.FirstName, u.LastName = "", ""
			return u
		}, "Please fill in all required fields"},
		{"patient without blood type", func() *User {
			u := registration(RolePatient, "pat@gmail.com")
			u.BloodType = ""
			return u
		}, "Please fill in all patient information"},
		{"patient without date of birth", func() *User {
			u := registration(RolePatient, "pat@gmail.com")
			u.DateOfBirth = ""
			return u
		}, "Please fill in all patient information"},
		{"doctor without specialization", func() *User {
			u := registration(RoleDoctor, "doc@curasync.com")
			u.Specialization = ""
			return u
		}, "Please specify your specialization"},
		{"nurse without department", func() *User {
			u := registration(RoleNurse, "nurse@curasync.com")
			u.Department = ""
			return u
		}, "Please specify your department"},
		{"unknown role", func() *User {
			return registration(Role("janitor"), "x@curasync.com")
		}, `invalid role: "janitor"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService()
			err := svc.Register(context.Background(), tt.user())
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Msg != tt.want {
				t.Errorf("expected %q, got %q", tt.want, ve.Msg)
			}
			if store.Len() != 0 {
				t.Errorf("expected nothing stored, got %d keys", store.Len())
			}
		})
	}

	svc, _ := newTestService()
	if err := svc.Register(context.Background(), registration(RoleAdmin, "ops@curasync.com")); err != nil {
		t.Errorf("admin needs no profile fields: %v", err)
	}
}

func TestRegister_IgnoresSuppliedID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	admin := &User{ID: "1", Email: "admin@curasync.com", Password: "admin123", Role: RoleAdmin, FirstName: "Ada", LastName: "Admin"}
	if err := svc.CreateUser(ctx, admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	intruder := registration(RolePatient, "evil@gmail.com")
	intruder.ID = "1"
	intruder.Password = "pwned"
	if err := svc.Register(ctx, intruder); err != nil {
		t.Fatalf("register: %v", err)
	}
	if intruder.ID == "1" {
		t.Fatal("expected a fresh id for the registered user")
	}

	got, err := svc.GetUser(ctx, "1")
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if got.Email != "admin@curasync.com" || got.Password != "admin123" {
		t.Errorf("existing user was overwritten: %+v", got)
	}
	if _, err := svc.Login(ctx, "admin@curasync.com", "admin123"); err != nil {
		t.Errorf("expected original credentials to work: %v", err)
	}
	if _, err := svc.Login(ctx, "admin@curasync.com", "pwned"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreateAccount_IgnoresSuppliedID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	createPatient(t, svc, "robert@example.com") // id 101

	u := &User{ID: "101", Email: "nurse.new@curasync.com", Role: RoleNurse}
	if err := svc.CreateAccount(ctx, u); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if u.ID != "102" {
		t.Errorf("expected fresh id 102, got %q", u.ID)
	}
	got, err := svc.GetUser(ctx, "101")
	if err != nil || got.Email != "robert@example.com" {
		t.Errorf("expected user 101 untouched, got %+v (%v)", got, err)
	}
}

func TestCheckStaffDomain(t *testing.T) {
	tests := []struct {
		role    Role
		email   string
		domain  string
		wantErr bool
	}{
		{RoleAdmin, "a@curasync.com", "@curasync.com", false},
		{RoleNurse, "n@hospital.org", "@curasync.com", true},
		{RolePatient, "p@yahoo.com", "@curasync.com", false},
		{RoleDoctor, "d@anything.com", "", false},
	}
	for _, tt := range tests {
		err := CheckStaffDomain(tt.role, tt.email, tt.domain)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckStaffDomain(%s, %s) err = %v, wantErr %v", tt.role, tt.email, err, tt.wantErr)
		}
	}
}

func TestRole(t *testing.T) {
	if !RoleNurse.IsStaff() || RolePatient.IsStaff() || Role("x").IsStaff() {
		t.Error("unexpected IsStaff result")
	}
	u := User{FirstName: "Sarah", LastName: "Administrator"}
	if u.Name() != "Sarah Administrator" {
		t.Errorf("unexpected name %q", u.Name())
	}
}
