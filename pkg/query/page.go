// Package query holds the building blocks of list queries: page
// normalisation, sort orders, SQL predicates, matching by example and the
// paged result envelope.
package query

import "math"

// DefaultPageSize is used when a caller asks for a page size below 1.
const DefaultPageSize = 20

// Pageable is a normalised, 1-based page request.
type Pageable struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// PageOf normalises a page request: page < 1 becomes 1 and size < 1 becomes
// DefaultPageSize.
func PageOf(page, size int) Pageable {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return Pageable{Page: page, Size: size}
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt for page numbers whose offset does not fit an int.
func (p Pageable) Offset() int {
	if p.Page <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Size
}

// Limit is the maximum number of rows in this page.
func (p Pageable) Limit() int {
	return p.Size
}

// Result is the paged list envelope returned to clients.
type Result[E any] struct {
	List      []*E  `json:"list"`
	Total     int64 `json:"total"`
	Page      int64 `json:"page"`
	TotalPage int64 `json:"totalPage"`
}

// NewResult wraps one page of rows. list is never nil in the result.
func NewResult[E any](list []*E, total int64, page Pageable) *Result[E] {
	if list == nil {
		list = []*E{}
	}
	var totalPage int64
	if page.Size > 0 {
		size := int64(page.Size)
		totalPage = (total + size - 1) / size
	}
	return &Result[E]{
		List:      list,
		Total:     total,
		Page:      int64(page.Page),
		TotalPage: totalPage,
	}
}

// IsEmpty reports whether the total count is zero. It does not look at List.
func (r *Result[E]) IsEmpty() bool {
	return r.Total == 0
}
