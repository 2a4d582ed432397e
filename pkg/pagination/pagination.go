package pagination

import (
	"net/url"
	"strconv"
)

const (
	// DefaultPerPage matches the users table default page size.
	DefaultPerPage = 10
	// MaxPerPage caps a single page.
	MaxPerPage = 100
)

// Params holds 1-based pagination parameters as the admin API reads them
// from the "page" and "perPage" query keys.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Offset  int `json:"-"`
}

// DefaultParams returns page 1 with the default page size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// FromValues extracts pagination parameters from a query string, ignoring
// values that are not positive integers.
func FromValues(q url.Values) Params {
	p := DefaultParams()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("perPage")); err == nil && v > 0 {
		p.PerPage = min(v, MaxPerPage)
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Window returns the slice of items that falls on the requested page.
func Window[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.PerPage, len(items))
	return items[p.Offset:end]
}

// TotalPages returns how many pages of perPage items hold total items.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	pages := total / perPage
	if total%perPage > 0 {
		pages++
	}
	return pages
}
