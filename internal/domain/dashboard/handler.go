package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, optionalAuth echo.MiddlewareFunc) {
	e.GET("/dashboard/summary", h.Summary, optionalAuth)
}

func (h *Handler) Summary(c echo.Context) error {
	ownerID := auth.UserIDFromContext(c.Request().Context())
	sum, err := h.svc.Summary(c.Request().Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patientCount":  sum.PatientCount,
		"testCount":     sum.TestCount,
		"abnormalCount": sum.AbnormalCount,
		"authenticated": ownerID != nil,
	})
}
