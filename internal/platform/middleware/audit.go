package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/curasync/ehr/internal/platform/auth"
)

// AuditEntry describes one write request against a collection.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Collection string
	RecordID   string
	Action     string // create, update, delete
	IPAddress  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder receives audit entries in addition to the structured log.
type AuditRecorder interface {
	RecordMutation(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordMutation(entry AuditEntry) error {
	return f(entry)
}

// AuditConfig configures AuditWithConfig.
type AuditConfig struct {
	Logger    zerolog.Logger
	Recorders []AuditRecorder
	// ReadOnlyRoutes lists route templates (as registered, e.g.
	// "/appointments/check") that accept a POST without writing any
	// collection. They are not audited.
	ReadOnlyRoutes []string
}

// Audit logs every POST, PUT, PATCH and DELETE with the acting session user
// (when there is one), the collection and the record id. Reads are not
// audited.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return AuditWithConfig(AuditConfig{Logger: logger, Recorders: recorders})
}

// AuditWithConfig is Audit with a list of non-writing routes to skip.
func AuditWithConfig(cfg AuditConfig) echo.MiddlewareFunc {
	logger := cfg.Logger
	skip := make(map[string]bool, len(cfg.ReadOnlyRoutes))
	for _, r := range cfg.ReadOnlyRoutes {
		skip[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			action := methodToAction(c.Request().Method)
			if action == "" {
				return next(c)
			}

			err := next(c)

			req := c.Request()
			if skip[routeOf(c)] {
				return err
			}
			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       req.URL.Path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				Action:     action,
				Collection: collectionFromPath(req.URL.Path),
				RecordID:   recordID(c),
				UserID:     auth.UserIDFromContext(req.Context()),
				UserRoles:  auth.RolesFromContext(req.Context()),
				StatusCode: c.Response().Status,
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			for _, r := range cfg.Recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordMutation(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("collection", entry.Collection).
				Str("record_id", entry.RecordID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("mutation")

			return err
		}
	}
}

// routeOf returns the matched route template, or the raw path when the
// request was not routed.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return ""
}

// collectionFromPath maps a request path to the collection it writes.
//
//	/users/7                         -> users
//	/dashboard/doctor/medical-records -> medical-records
//	/login                           -> login
func collectionFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 3 && segments[0] == "dashboard" {
		return segments[2]
	}
	if segments[0] == "" {
		return "unknown"
	}
	return segments[0]
}

func recordID(c echo.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	return c.Param("doctorId")
}
