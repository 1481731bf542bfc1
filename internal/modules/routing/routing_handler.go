package routing

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"eco-route-planner/internal/models"
)

// Handler exposes the optimiser over HTTP.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
	log      *zap.Logger
}

// NewHandler builds the handler. log may be nil.
func NewHandler(svc ServiceInterface, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes mounts the public routes on g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/routes/optimize", h.OptimizeRoutes)
	g.GET("/routes/locations", h.GetLocations)
	g.GET("/routes/metrics", h.GetMetrics)
}

// RegisterAdminRoutes mounts the audit listing on an authenticated group.
func (h *Handler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/runs", h.ListRuns)
}

func (h *Handler) OptimizeRoutes(c echo.Context) error {
	var req models.OptimizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	resp, err := h.svc.Optimize(c.Request().Context(), req)
	if err != nil {
		if models.IsInputError(err) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
		}
		h.log.Error("Handler.OptimizeRoutes", zap.Error(err),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to optimize routes"})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetLocations(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Locations(c.Request().Context()))
}

func (h *Handler) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Metrics(c.Request().Context()))
}

// ListRuns returns the newest optimisation runs. ?limit= caps the count.
func (h *Handler) ListRuns(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "limit must be a positive integer"})
		}
		limit = n
	}
	runs, err := h.svc.ListRuns(c.Request().Context(), limit)
	if err != nil {
		h.log.Error("Handler.ListRuns", zap.Error(err),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to list runs"})
	}
	return c.JSON(http.StatusOK, runs)
}
