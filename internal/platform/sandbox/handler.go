package sandbox

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/curasync/ehr/internal/platform/response"
)

type SeedHandler struct {
	seeder *Seeder
}

func NewSeedHandler(seeder *Seeder) *SeedHandler {
	return &SeedHandler{seeder: seeder}
}

// RegisterRoutes mounts POST /reset. The reset is destructive and takes no
// confirmation.
func (h *SeedHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/reset", h.handleReset)
}

func (h *SeedHandler) handleReset(c echo.Context) error {
	res, err := h.seeder.Reset(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reset database").SetInternal(err)
	}
	return response.Message(c, fmt.Sprintf("Database reset and re-initialized with %d demo users", res.Users))
}
