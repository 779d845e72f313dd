package labtest

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/apperror"
	"github.com/labtrack/labtrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/tests", requireAuth)
	g.GET("", h.ListAll)
	g.POST("", h.Create)
	g.GET("/:patientId", h.ListForPatient)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperror.FromBind(err)
	}

	t, ev, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"msg":      "Test recorded",
		"flagged":  ev.Flagged,
		"statuses": ev.Statuses,
		"test":     t,
	})
}

func (h *Handler) ListForPatient(c echo.Context) error {
	patientID, err := strconv.Atoi(c.Param("patientId"))
	if err != nil || patientID < 1 {
		return apperror.Validation("Invalid patient id")
	}

	tests, err := h.svc.ListForPatient(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tests)
}

func (h *Handler) ListAll(c echo.Context) error {
	ownerID := auth.UserIDFromContext(c.Request().Context())
	tests, err := h.svc.ListAll(c.Request().Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tests)
}
