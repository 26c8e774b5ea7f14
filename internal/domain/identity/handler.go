package identity

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/curasync/ehr/internal/platform/auth"
	"github.com/curasync/ehr/internal/platform/response"
)

// SessionStore issues and revokes login sessions.
type SessionStore interface {
	Issue(ctx context.Context, userID, role string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

// LoginObserver is told the outcome of every login attempt.
type LoginObserver interface {
	LoginAttempt(success bool)
}

type Handler struct {
	svc      *Service
	sessions SessionStore
	observer LoginObserver
}

// NewHandler creates the user handler. sessions and observer may be nil, in
// which case login returns no session token and is not counted.
func NewHandler(svc *Service, sessions SessionStore, observer LoginObserver) *Handler {
	return &Handler{svc: svc, sessions: sessions, observer: observer}
}

// RegisterRoutes mounts the user CRUD, login and registration endpoints.
// None of them require a session.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/users", h.ListUsers)
	g.POST("/users", h.CreateUser)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser)
	g.POST("/login", h.Login)
	g.POST("/register", h.Register)
}

// RegisterSessionRoutes mounts the session endpoints. requireSession is
// normally auth.SessionMiddleware.
func (h *Handler) RegisterSessionRoutes(g *echo.Group, requireSession ...echo.MiddlewareFunc) {
	g.GET("/session", h.CurrentSession, requireSession...)
	g.POST("/logout", h.Logout, requireSession...)
}

// HTTPError maps service errors to HTTP errors. failMsg is used for store
// failures, which keep the cause as the internal error.
func HTTPError(err error, failMsg string) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	case errors.Is(err, ErrEmailExists):
		return echo.NewHTTPError(http.StatusBadRequest, ErrEmailExists.Error())
	case errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, failMsg).SetInternal(err)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return HTTPError(err, "Failed to fetch users")
	}
	return response.OK(c, users)
}

func (h *Handler) GetUser(c echo.Context) error {
	u, err := h.svc.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HTTPError(err, "Failed to fetch user")
	}
	return response.OK(c, u)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateUser(c.Request().Context(), &u); err != nil {
		return HTTPError(err, "Failed to create user")
	}
	return response.OK(c, u)
}

func (h *Handler) Register(c echo.Context) error {
	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Register(c.Request().Context(), &u); err != nil {
		return HTTPError(err, "Failed to register user")
	}
	return response.OK(c, u)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.UpdateUser(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return HTTPError(err, "Failed to update user")
	}
	return response.OK(c, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	if err := h.svc.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return HTTPError(err, "Failed to delete user")
	}
	return response.Message(c, "User deleted successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the credentials and returns the full user record. When a
// session store is configured the session token is set in X-Session-Token.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	u, err := h.svc.Login(ctx, req.Email, req.Password)
	if h.observer != nil && (err == nil || errors.Is(err, ErrInvalidCredentials)) {
		h.observer.LoginAttempt(err == nil)
	}
	if err != nil {
		return HTTPError(err, "Login failed")
	}

	if h.sessions != nil {
		token, err := h.sessions.Issue(ctx, u.ID, string(u.Role))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Login failed").SetInternal(err)
		}
		c.Response().Header().Set(auth.SessionHeader, token)
	}
	return response.OK(c, u)
}

// CurrentSession returns the user behind the session token.
func (h *Handler) CurrentSession(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.svc.GetUser(ctx, auth.UserIDFromContext(ctx))
	if errors.Is(err, ErrUserNotFound) {
		// The account was deleted after login.
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	if err != nil {
		return HTTPError(err, "Failed to fetch session")
	}
	return response.OK(c, u)
}

func (h *Handler) Logout(c echo.Context) error {
	if h.sessions == nil {
		return response.Message(c, "Logged out successfully")
	}
	ctx := c.Request().Context()
	if err := h.sessions.Revoke(ctx, auth.SessionIDFromContext(ctx)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log out").SetInternal(err)
	}
	return response.Message(c, "Logged out successfully")
}
