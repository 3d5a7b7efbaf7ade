package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when the page is missing or invalid.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps Page and Limit into their valid ranges.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// Offset is the number of rows to skip for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NormalizePage defaults non-positive pages to the first page.
func NormalizePage(page int) int {
	if page <= 0 {
		return DefaultPage
	}
	return page
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// FromQuery reads page and limit from query values. Unparseable values fall back to defaults.
func FromQuery(q url.Values) Params {
	return Params{
		Page:  atoi(q.Get("page")),
		Limit: atoi(q.Get("limit")),
	}.Normalize()
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
