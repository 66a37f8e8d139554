package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MinLimit     = 1
	// BoardLimit caps the status board, which loads every job at once.
	BoardLimit = 500
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts page and limit (or page_size) from the query, capped at MaxLimit
func Parse(c *gin.Context) Params {
	return ParseWithMax(c, DefaultLimit, MaxLimit)
}

// ParseWithMax is Parse with caller-chosen default and maximum page sizes
func ParseWithMax(c *gin.Context, defaultLimit, maxLimit int) Params {
	page := atoiOr(c.Query("page"), DefaultPage)
	rawLimit := c.Query("limit")
	if rawLimit == "" {
		rawLimit = c.Query("page_size")
	}
	limit := atoiOr(rawLimit, defaultLimit)

	return New(page, limit, maxLimit)
}

// New clamps page and limit and derives the offset
func New(page, limit, maxLimit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
