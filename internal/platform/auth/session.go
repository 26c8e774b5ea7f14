package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/curasync/ehr/internal/platform/kv"
)

// SessionHeader carries the session token on the login response.
const SessionHeader = "X-Session-Token"

const sessionPrefix = "session:"

var ErrInvalidSession = errors.New("invalid session")

// Session is the current-session marker persisted under "session:<id>".
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionClaims are the claims signed into a session token. The session id
// travels as the JWT ID.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// SessionManager issues HS256 session tokens and tracks the matching
// session markers in the key-value store so logout can invalidate them.
type SessionManager struct {
	store      kv.Store
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewSessionManager(store kv.Store, signingKey []byte, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, signingKey: signingKey, ttl: ttl, now: time.Now}
}

func sessionKey(id string) string { return sessionPrefix + id }

// Issue creates a session for the user and returns its signed token.
func (m *SessionManager) Issue(ctx context.Context, userID, role string) (string, error) {
	now := m.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	if err := kv.SetJSON(ctx, m.store, sessionKey(sess.ID), sess); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Validate checks the token signature and expiry and that its session marker
// still exists.
func (m *SessionManager) Validate(ctx context.Context, token string) (*Session, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) && claims.ID != "" {
		// The signature checked out; only the clock ran past it.
		_ = m.store.Del(ctx, sessionKey(claims.ID))
		return nil, ErrInvalidSession
	}
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidSession
	}

	var sess Session
	err = kv.GetJSON(ctx, m.store, sessionKey(claims.ID), &sess)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != claims.Subject {
		return nil, ErrInvalidSession
	}
	return &sess, nil
}

// Revoke deletes the session marker so the token is no longer accepted.
func (m *SessionManager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.Del(ctx, sessionKey(sessionID))
}

// PurgeExpired deletes every session marker whose expiry has passed and
// returns how many were removed. Markers that no longer decode are removed
// too.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int, error) {
	entries, err := m.store.GetByPrefix(ctx, sessionPrefix)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	now := m.now()
	purged := 0
	for _, e := range entries {
		var sess Session
		if err := json.Unmarshal(e.Value, &sess); err == nil && now.Before(sess.ExpiresAt) {
			continue
		}
		if err := m.store.Del(ctx, e.Key); err != nil && !errors.Is(err, kv.ErrNotFound) {
			return purged, fmt.Errorf("delete session %s: %w", e.Key, err)
		}
		purged++
	}
	return purged, nil
}
