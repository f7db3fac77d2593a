package pagination

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultLimit is used when ?limit is missing or invalid
	DefaultLimit = 20
	// MaxLimit caps ?limit
	MaxLimit = 100
)

// Params is a validated page request
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Meta describes the page returned
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Response is a page of data with its meta
type Response struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta"`
}

// GetParams reads ?page and ?limit, clamping them into range
func GetParams(c *fiber.Ctx) *Params {
	return NewParams(c.QueryInt("page", 1), c.QueryInt("limit", DefaultLimit))
}

// NewParams clamps page and limit and derives the row offset
func NewParams(page, limit int) *Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return &Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// GetMeta calculates pagination metadata
func GetMeta(params *Params, total int64) *Meta {
	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))

	return &Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}

// NewResponse wraps one page of data
func NewResponse(data interface{}, params *Params, total int64) *Response {
	return &Response{Data: data, Meta: GetMeta(params, total)}
}
