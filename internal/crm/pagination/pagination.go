// Package pagination implements numeric-offset pagination shared by every
// list endpoint.
package pagination

import (
	"net/url"
	"strconv"

	"gorm.io/gorm"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Request describes the requested page and the URL it was requested from.
type Request struct {
	Page    int
	PerPage int
	// Path is the absolute URL of the list endpoint without query string.
	Path string
	// Query holds the remaining query parameters, preserved in navigation links.
	Query url.Values
}

// FromQuery parses page and per_page from q. Invalid values fall back to
// defaults; per_page is clamped to [1, MaxPerPage].
func FromQuery(path string, q url.Values) Request {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	query := url.Values{}
	for k, v := range q {
		if k == "page" {
			continue
		}
		query[k] = append([]string(nil), v...)
	}

	return Request{Page: page, PerPage: perPage, Path: path, Query: query}
}

// Offset returns the number of rows skipped before the requested page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PerPage
}

// Apply applies offset and limit to a GORM query.
func Apply(query *gorm.DB, r Request) *gorm.DB {
	return query.Offset(r.Offset()).Limit(r.PerPage)
}

// URL returns the link to page, keeping the other query parameters.
func (r Request) URL(page int) string {
	q := url.Values{}
	for k, v := range r.Query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return r.Path + "?" + q.Encode()
}

// Page is one page of items plus the total number of matching rows.
type Page[T any] struct {
	Items   []T
	Total   int64
	Request Request
}

// Meta represents pagination metadata.
type Meta struct {
	CurrentPage  int     `json:"current_page"`
	FirstPageURL string  `json:"first_page_url"`
	From         *int    `json:"from"`
	LastPage     int     `json:"last_page"`
	LastPageURL  string  `json:"last_page_url"`
	NextPageURL  *string `json:"next_page_url"`
	Path         string  `json:"path"`
	PerPage      int     `json:"per_page"`
	PrevPageURL  *string `json:"prev_page_url"`
	To           *int    `json:"to"`
	Total        int64   `json:"total"`
	HasMorePages bool    `json:"has_more_pages"`
	OnFirstPage  bool    `json:"on_first_page"`
}

// Meta builds the pagination metadata for p.
func (p *Page[T]) Meta() Meta {
	return NewMeta(p.Request, p.Total, len(p.Items))
}

// NewMeta builds pagination metadata for a page holding count items out of total.
func NewMeta(r Request, total int64, count int) Meta {
	lastPage := int((total + int64(r.PerPage) - 1) / int64(r.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	meta := Meta{
		CurrentPage:  r.Page,
		FirstPageURL: r.URL(1),
		LastPage:     lastPage,
		LastPageURL:  r.URL(lastPage),
		Path:         r.Path,
		PerPage:      r.PerPage,
		Total:        total,
		HasMorePages: r.Page < lastPage,
		OnFirstPage:  r.Page <= 1,
	}
	if count > 0 {
		from := r.Offset() + 1
		to := r.Offset() + count
		meta.From = &from
		meta.To = &to
	}
	if meta.HasMorePages {
		next := r.URL(r.Page + 1)
		meta.NextPageURL = &next
	}
	if r.Page > 1 {
		prev := r.URL(r.Page - 1)
		meta.PrevPageURL = &prev
	}
	return meta
}

// Map converts the items of p with fn.
func Map[T, R any](p *Page[T], fn func(T) R) []R {
	out := make([]R, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, fn(item))
	}
	return out
}
