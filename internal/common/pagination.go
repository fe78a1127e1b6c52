package common

import (
	"net/http"
	"strconv"
)

// maxPerPage caps the page size so a mistyped limit cannot pull the whole
// order table into one response.
const maxPerPage = 100

// Pagination echoes the paging of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination reads the page and limit query parameters of a list request.
// Non-numeric or non-positive values fall back to page 1 and the caller's
// default page size; oversized limits are clamped.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return
}

// Offset converts a parsed page into the SQL offset for that page.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
