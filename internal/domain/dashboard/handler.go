package dashboard

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/curasync/ehr/internal/domain/clinical"
	"github.com/curasync/ehr/internal/domain/identity"
	"github.com/curasync/ehr/internal/domain/scheduling"
	"github.com/curasync/ehr/internal/platform/auth"
	"github.com/curasync/ehr/internal/platform/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the dashboards on g, normally the "/dashboard" group
// guarded by auth.SessionMiddleware.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.View)

	admin := g.Group("/admin", auth.RequireRole(string(identity.RoleAdmin)))
	admin.POST("/users", h.CreateUser)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)

	doctor := g.Group("/doctor", auth.RequireRole(string(identity.RoleDoctor)))
	doctor.POST("/medical-records", h.AddRecord)
	doctor.PUT("/medical-records/:id", h.UpdateOwnRecord)
	doctor.PUT("/leave", h.UpdateLeave)

	nurse := g.Group("/nurse", auth.RequireRole(string(identity.RoleNurse)))
	nurse.POST("/medical-records", h.AddRecord)
	nurse.PUT("/medical-records/:id", h.UpdateAnyRecord)
	nurse.PUT("/availability", h.UpdateNurseAvailability)

	patient := g.Group("/patient", auth.RequireRole(string(identity.RolePatient)))
	patient.POST("/appointments", h.Book)
	patient.DELETE("/appointments/:id", h.Cancel)
}

func notOwner(err error) bool {
	return errors.Is(err, ErrNotOwner)
}

func forbidden(err error) error {
	return echo.NewHTTPError(http.StatusForbidden, err.Error())
}

func currentRole(c echo.Context) identity.Role {
	roles := auth.RolesFromContext(c.Request().Context())
	if len(roles) == 0 {
		return ""
	}
	return identity.Role(roles[0])
}

func (h *Handler) View(c echo.Context) error {
	ctx := c.Request().Context()
	role := currentRole(c)
	if !role.Valid() {
		return echo.NewHTTPError(http.StatusForbidden, "no dashboard for this role")
	}
	view, err := h.svc.View(ctx, auth.UserIDFromContext(ctx), role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dashboard").SetInternal(err)
	}
	return response.OK(c, view)
}

// -- Admin --

func (h *Handler) CreateUser(c echo.Context) error {
	var u identity.User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateUser(c.Request().Context(), &u); err != nil {
		return identity.HTTPError(err, "Failed to create user")
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
		return identity.HTTPError(err, "Failed to update user")
	}
	return response.OK(c, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	if err := h.svc.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return identity.HTTPError(err, "Failed to delete user")
	}
	return response.Message(c, "User deleted successfully")
}

// -- Doctor and nurse --

func (h *Handler) AddRecord(c echo.Context) error {
	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	r, err := h.svc.AddRecord(ctx, auth.UserIDFromContext(ctx), in)
	if err != nil {
		return clinical.HTTPError(err, "Failed to create medical record")
	}
	return response.OK(c, r)
}

// UpdateOwnRecord lets a doctor edit records they authored.
func (h *Handler) UpdateOwnRecord(c echo.Context) error {
	return h.updateRecord(c, true)
}

// UpdateAnyRecord lets a nurse edit any record.
func (h *Handler) UpdateAnyRecord(c echo.Context) error {
	return h.updateRecord(c, false)
}

func (h *Handler) updateRecord(c echo.Context, ownOnly bool) error {
	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	r, err := h.svc.UpdateRecord(ctx, auth.UserIDFromContext(ctx), c.Param("id"), in, ownOnly)
	if notOwner(err) {
		return forbidden(err)
	}
	if err != nil {
		return clinical.HTTPError(err, "Failed to update medical record")
	}
	return response.OK(c, r)
}

func (h *Handler) UpdateLeave(c echo.Context) error {
	var in LeaveInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	a, err := h.svc.UpdateLeave(ctx, auth.UserIDFromContext(ctx), in.LeaveDates)
	if err != nil {
		return scheduling.HTTPError(err, "Failed to update availability")
	}
	return response.OK(c, a)
}

func (h *Handler) UpdateNurseAvailability(c echo.Context) error {
	var in NurseAvailabilityInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	a, err := h.svc.UpdateNurseAvailability(ctx, auth.UserIDFromContext(ctx), in)
	if err != nil {
		return scheduling.HTTPError(err, "Failed to update availability")
	}
	return response.OK(c, a)
}

// -- Patient --

func (h *Handler) Book(c echo.Context) error {
	var in BookingInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if in.DoctorID == "" || in.Date == "" || in.Time == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "doctorId, date and time are required")
	}
	ctx := c.Request().Context()
	b, err := h.svc.Book(ctx, auth.UserIDFromContext(ctx), in)
	if err != nil {
		return scheduling.HTTPError(err, "Failed to create appointment")
	}
	return response.OK(c, b)
}

func (h *Handler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	err := h.svc.Cancel(ctx, auth.UserIDFromContext(ctx), c.Param("id"))
	if notOwner(err) {
		return forbidden(err)
	}
	if err != nil {
		return scheduling.HTTPError(err, "Failed to cancel appointment")
	}
	return response.Message(c, "Appointment cancelled successfully")
}
