package identity

import (
	"context"
)

// UserRepository persists users and their email index.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	// IDByEmail resolves the email index; it returns ErrUserNotFound when
	// no user owns the address.
	IDByEmail(ctx context.Context, email string) (string, error)
	// Update overwrites the stored record. When previousEmail differs from
	// u.Email the index entry is moved.
	Update(ctx context.Context, u *User, previousEmail string) error
	Delete(ctx context.Context, u *User) error
	List(ctx context.Context) ([]*User, error)
}
