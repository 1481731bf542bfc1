package auth

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"eco-route-planner/internal/models"
)

// Handler handles operator authentication.
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

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/token", h.IssueToken)
}

func (h *Handler) IssueToken(c echo.Context) error {
	var req models.TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	tok, err := h.svc.IssueToken(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid credentials"})
		}
		h.log.Error("Handler.IssueToken", zap.Error(err),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to issue token"})
	}
	return c.JSON(http.StatusOK, tok)
}

// RequireAdmin guards a group with bearer tokens issued by svc. Tokens are
// checked by svc.ParseToken, so a validly signed token without the admin
// role is rejected too.
func RequireAdmin(svc ServiceInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: svc.SigningKey(),
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return svc.ParseToken(auth)
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get("user").(*models.AdminClaims); ok {
				c.Set("userID", claims.Subject)
				c.Set("userRole", claims.Role)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or missing token"})
		},
	})
}
