package clinical

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
	g.GET("/medical-records", h.ListRecords)
	g.POST("/medical-records", h.CreateRecord)
	g.GET("/medical-records/:id", h.GetRecord)
	g.PUT("/medical-records/:id", h.UpdateRecord)
	g.DELETE("/medical-records/:id", h.DeleteRecord)
}

// HTTPError maps clinical errors to HTTP errors.
func HTTPError(err error, failMsg string) error {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrRecordNotFound.Error())
	case errors.Is(err, ErrInvalidPatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, failMsg).SetInternal(err)
}

func (h *Handler) ListRecords(c echo.Context) error {
	list, err := h.svc.ListRecords(c.Request().Context())
	if err != nil {
		return HTTPError(err, "Failed to fetch medical records")
	}
	return response.OK(c, list)
}

func (h *Handler) GetRecord(c echo.Context) error {
	r, err := h.svc.GetRecord(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HTTPError(err, "Failed to fetch medical record")
	}
	return response.OK(c, r)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var r MedicalRecord
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateRecord(c.Request().Context(), &r); err != nil {
		return HTTPError(err, "Failed to create medical record")
	}
	return response.OK(c, r)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := h.svc.UpdateRecord(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return HTTPError(err, "Failed to update medical record")
	}
	return response.OK(c, r)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	if err := h.svc.DeleteRecord(c.Request().Context(), c.Param("id")); err != nil {
		return HTTPError(err, "Failed to delete medical record")
	}
	return response.Message(c, "Medical record deleted successfully")
}
