package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/curasync/ehr/internal/platform/kv"
)

const (
	userPrefix      = "user:"
	userEmailPrefix = "user:email:"
)

func userKey(id string) string     { return userPrefix + id }
func emailKey(email string) string { return userEmailPrefix + email }

type userRepoKV struct{ store kv.Store }

func NewUserRepoKV(store kv.Store) UserRepository { return &userRepoKV{store: store} }

func (r *userRepoKV) Create(ctx context.Context, u *User) error {
	if err := kv.SetJSON(ctx, r.store, userKey(u.ID), u); err != nil {
		return err
	}
	return kv.SetJSON(ctx, r.store, emailKey(u.Email), u.ID)
}

func (r *userRepoKV) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := kv.GetJSON(ctx, r.store, userKey(id), &u)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

func (r *userRepoKV) IDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := kv.GetJSON(ctx, r.store, emailKey(email), &id)
	if errors.Is(err, kv.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup email: %w", err)
	}
	return id, nil
}

func (r *userRepoKV) Update(ctx context.Context, u *User, previousEmail string) error {
	if previousEmail != u.Email {
		if err := r.store.Del(ctx, emailKey(previousEmail)); err != nil {
			return err
		}
		if err := kv.SetJSON(ctx, r.store, emailKey(u.Email), u.ID); err != nil {
			return err
		}
	}
	return kv.SetJSON(ctx, r.store, userKey(u.ID), u)
}

func (r *userRepoKV) Delete(ctx context.Context, u *User) error {
	if err := r.store.Del(ctx, userKey(u.ID)); err != nil {
		return err
	}
	return r.store.Del(ctx, emailKey(u.Email))
}

func (r *userRepoKV) List(ctx context.Context) ([]*User, error) {
	entries, err := r.store.GetByPrefix(ctx, userPrefix)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*User, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Key, userEmailPrefix) {
			continue
		}
		var u User
		if err := json.Unmarshal(e.Value, &u); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		users = append(users, &u)
	}
	return users, nil
}
