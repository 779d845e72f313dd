package refrange

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/apperror"
	"github.com/labtrack/labtrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the reference range surface. Reads and writes
// are optional-auth: anonymous requests see and manage the shared range
// catalog, matching the dashboard's open-summary policy. Authenticated
// writes additionally pass through writeRole, so a claim with an
// unqualified role cannot edit the catalog.
func (h *Handler) RegisterRoutes(e *echo.Echo, optionalAuth, writeRole echo.MiddlewareFunc) {
	g := e.Group("/reference_ranges", optionalAuth)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create, writeRole)
	g.PUT("/:id", h.Update, writeRole)
	g.DELETE("/:id", h.Delete, writeRole)
}

func (h *Handler) List(c echo.Context) error {
	p, err := pagination.FromContext(c)
	if err != nil {
		return err
	}

	items, total, err := h.svc.List(c.Request().Context(), p, c.QueryParam("parameter"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, p, total))
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperror.FromBind(err)
	}

	r, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Reference range added",
		"data":    r,
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := rangeID(c)
	if err != nil {
		return err
	}

	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := rangeID(c)
	if err != nil {
		return err
	}

	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return apperror.FromBind(err)
	}

	r, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Reference range updated",
		"data":    r,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := rangeID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Reference range deleted"})
}

func rangeID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, apperror.NotFound("Reference range not found")
	}
	return id, nil
}
