package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/apperror"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page    int
	PerPage int
}

// FromContext extracts page/per_page parameters from the echo context.
// Both must be positive integers and per_page is capped at MaxPerPage;
// violations are unprocessable rather than silently clamped.
func FromContext(c echo.Context) (Params, error) {
	p := Params{Page: 1, PerPage: DefaultPerPage}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Params{}, errInvalidParams()
		}
		p.Page = page
	}

	if raw := c.QueryParam("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 || perPage > MaxPerPage {
			return Params{}, errInvalidParams()
		}
		p.PerPage = perPage
	}

	return p, nil
}

func errInvalidParams() error {
	return apperror.Unprocessable(
		"Query parameters 'page' and 'per_page' must be positive integers, per_page max is %d.", MaxPerPage)
}

// Offset returns the row offset for SQL queries.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the row limit for SQL queries.
func (p Params) Limit() int {
	return p.PerPage
}

// Meta describes the position of a page within the full result set.
type Meta struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewMeta computes pagination metadata for a result set of total rows.
func NewMeta(p Params, total int) Meta {
	pages := total / p.PerPage
	if total%p.PerPage != 0 {
		pages++
	}
	return Meta{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}

// Response wraps a paginated API response.
type Response struct {
	Data       interface{} `json:"data"`
	Pagination Meta        `json:"pagination"`
}

func NewResponse(data interface{}, p Params, total int) *Response {
	return &Response{Data: data, Pagination: NewMeta(p, total)}
}
