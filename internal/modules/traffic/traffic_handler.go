package traffic

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the traffic snapshot.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/traffic/current", h.GetCurrent)
}

// GetCurrent returns the traffic picture for the current hour.
func (h *Handler) GetCurrent(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Current(c.Request().Context()))
}
