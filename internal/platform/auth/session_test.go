package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curasync/ehr/internal/platform/kv"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) (*SessionManager, *kv.MemoryStore) {
	t.Helper()
	store := kv.NewMemoryStore()
	return NewSessionManager(store, testKey, time.Hour), store
}

func TestSessionManager_IssueAndValidate(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	token, err := m.Issue(ctx, "2", "doctor")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sess, err := m.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "2", sess.UserID)
	assert.Equal(t, "doctor", sess.Role)
	assert.True(t, sess.ExpiresAt.After(sess.CreatedAt))

	ok, err := kv.Exists(ctx, store, "session:"+sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionManager_Revoke(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	token, err := m.Issue(ctx, "6", "patient")
	require.NoError(t, err)
	sess, err := m.Validate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, sess.ID))

	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionManager_Expired(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	issued := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(ctx, "5", "nurse")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionManager_ExpiredMarkerDeletedOnValidate(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	issued := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(ctx, "5", "nurse")
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Equal(t, 0, store.Len())
}

func TestSessionManager_ForeignTokenKeepsMarker(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	issued := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	_, err := m.Issue(ctx, "1", "admin")
	require.NoError(t, err)

	other := NewSessionManager(store, []byte("another-signing-key-of-32-bytes!"), time.Hour)
	other.now = func() time.Time { return issued }
	foreign, err := other.Issue(ctx, "2", "doctor")
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.Validate(ctx, foreign)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Equal(t, 2, store.Len())
}

func TestSessionManager_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	issued := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)

	m.now = func() time.Time { return issued }
	_, err := m.Issue(ctx, "5", "nurse")
	require.NoError(t, err)
	m.now = func() time.Time { return issued.Add(90 * time.Minute) }
	live, err := m.Issue(ctx, "2", "doctor")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "session:broken", []byte(`"not a session"`)))
	require.NoError(t, store.Set(ctx, "user:1", []byte(`{"id":"1"}`)))

	n, err := m.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, store.Len())

	_, err = m.Validate(ctx, live)
	assert.NoError(t, err)
}

func TestSessionManager_WrongKey(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	token, err := m.Issue(ctx, "1", "admin")
	require.NoError(t, err)

	other := NewSessionManager(store, []byte("another-signing-key-of-32-bytes!"), time.Hour)
	_, err = other.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionManager_Garbage(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Validate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
		wantErr bool
	}{
		{"bearer", map[string]string{"Authorization": "Bearer abc"}, "abc", false},
		{"lowercase scheme", map[string]string{"Authorization": "bearer abc"}, "abc", false},
		{"session header", map[string]string{SessionHeader: "xyz"}, "xyz", false},
		{"bad scheme", map[string]string{"Authorization": "Basic abc"}, "", true},
		{"missing", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			got, err := TokenFromRequest(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionMiddleware(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	token, err := m.Issue(ctx, "7", "patient")
	require.NoError(t, err)

	e := echo.New()
	var gotUser string
	var gotRoles []string
	h := SessionMiddleware(m)(func(c echo.Context) error {
		gotUser = UserIDFromContext(c.Request().Context())
		gotRoles = RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, "7", gotUser)
	assert.Equal(t, []string{"patient"}, gotRoles)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	err = h(e.NewContext(req, httptest.NewRecorder()))
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, "invalid session", httpErr.Message)
}
