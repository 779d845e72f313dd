package patient

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

// RegisterRoutes mounts the patient surface. Listing is optional-auth
// (anonymous requests see global records, a documented policy); all
// writes and single-record reads require a claim.
func (h *Handler) RegisterRoutes(e *echo.Echo, requireAuth, optionalAuth echo.MiddlewareFunc) {
	e.GET("/patients", h.List, optionalAuth)
	e.POST("/patients", h.Create, requireAuth)

	g := e.Group("/patients", requireAuth)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperror.FromBind(err)
	}

	claims := auth.ClaimsFromContext(c.Request().Context())
	p, err := h.svc.Create(c.Request().Context(), in, claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"msg":     "Patient created successfully",
		"patient": p,
	})
}

func (h *Handler) List(c echo.Context) error {
	ownerID := auth.UserIDFromContext(c.Request().Context())
	patients, err := h.svc.List(c.Request().Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}

	claims := auth.ClaimsFromContext(c.Request().Context())
	p, err := h.svc.Get(c.Request().Context(), id, claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}

	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return apperror.FromBind(err)
	}

	claims := auth.ClaimsFromContext(c.Request().Context())
	p, err := h.svc.Update(c.Request().Context(), id, claims.UserID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"msg":     "Patient updated successfully",
		"patient": p,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}

	claims := auth.ClaimsFromContext(c.Request().Context())
	if err := h.svc.Delete(c.Request().Context(), id, claims.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"msg": "Patient deleted successfully"})
}

func patientID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, apperror.NotFound("Patient not found")
	}
	return id, nil
}
