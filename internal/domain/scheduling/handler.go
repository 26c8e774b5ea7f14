package scheduling

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/curasync/ehr/internal/platform/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/appointments", h.ListAppointments)
	g.POST("/appointments", h.CreateAppointment)
	g.POST("/appointments/check", h.CheckBooking)
	g.GET("/appointments/:id", h.GetAppointment)
	g.PUT("/appointments/:id", h.UpdateAppointment)
	g.DELETE("/appointments/:id", h.DeleteAppointment)

	g.GET("/doctor-availability", h.ListAvailability)
	g.GET("/doctor-availability/:doctorId", h.GetAvailability)
	g.PUT("/doctor-availability/:doctorId", h.PutAvailability)
}

// HTTPError maps scheduling errors to HTTP errors. failMsg is used for
// store failures.
func HTTPError(err error, failMsg string) error {
	switch {
	case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, ErrAvailabilityNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidPatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, failMsg).SetInternal(err)
}

// -- Appointments --

func (h *Handler) ListAppointments(c echo.Context) error {
	list, err := h.svc.ListAppointments(c.Request().Context())
	if err != nil {
		return HTTPError(err, "Failed to fetch appointments")
	}
	return response.OK(c, list)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	a, err := h.svc.GetAppointment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HTTPError(err, "Failed to fetch appointment")
	}
	return response.OK(c, a)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return HTTPError(err, "Failed to create appointment")
	}
	return response.OK(c, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return HTTPError(err, "Failed to update appointment")
	}
	return response.OK(c, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	if err := h.svc.DeleteAppointment(c.Request().Context(), c.Param("id")); err != nil {
		return HTTPError(err, "Failed to delete appointment")
	}
	return response.Message(c, "Appointment deleted successfully")
}

// CheckBooking reports advisory conflicts for a prospective appointment
// without storing it.
func (h *Handler) CheckBooking(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	warnings, err := h.svc.CheckBooking(c.Request().Context(), &a)
	if err != nil {
		return HTTPError(err, "Failed to check appointment")
	}
	return response.OK(c, map[string]interface{}{
		"ok":       len(warnings) == 0,
		"warnings": warnings,
	})
}

// -- Availability --

func (h *Handler) ListAvailability(c echo.Context) error {
	all, err := h.svc.ListAvailability(c.Request().Context())
	if err != nil {
		return HTTPError(err, "Failed to fetch availability")
	}
	return response.OK(c, all)
}

func (h *Handler) GetAvailability(c echo.Context) error {
	a, err := h.svc.GetAvailability(c.Request().Context(), c.Param("doctorId"))
	if err != nil {
		return HTTPError(err, "Failed to fetch availability")
	}
	return response.OK(c, a)
}

func (h *Handler) PutAvailability(c echo.Context) error {
	var a Availability
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.PutAvailability(c.Request().Context(), c.Param("doctorId"), &a); err != nil {
		return HTTPError(err, "Failed to update availability")
	}
	return response.OK(c, a)
}
