package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
	SessionIDKey contextKey = "session_id"
)

// TokenFromRequest extracts the session token from "Authorization: Bearer"
// or, failing that, the X-Session-Token request header.
func TokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if token := r.Header.Get(SessionHeader); token != "" {
		return token, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
}

// SessionMiddleware requires a valid session token and places the session's
// user id, role and session id on the request context.
func SessionMiddleware(sessions *SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := TokenFromRequest(c.Request())
			if err != nil {
				return err
			}

			sess, err := sessions.Validate(c.Request().Context(), token)
			if errors.Is(err, ErrInvalidSession) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load session").SetInternal(err)
			}

			ctx := WithSession(c.Request().Context(), sess)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// WithSession returns a context carrying the session's identity.
func WithSession(ctx context.Context, sess *Session) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, sess.UserID)
	ctx = context.WithValue(ctx, UserRolesKey, []string{sess.Role})
	ctx = context.WithValue(ctx, SessionIDKey, sess.ID)
	return ctx
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDKey).(string)
	return sid
}
