package repository

// Paging policy shared by every list surface: the public catalog, a member's
// request history, and the admin account and review-queue listings.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageRequest struct {
	Page     int
	PageSize int
}

// normalized clamps a caller-supplied page request into policy bounds.
func (p PageRequest) normalized() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// offset is the row offset of an already-normalized page.
func (p PageRequest) offset() int {
	return (p.Page - 1) * p.PageSize
}

type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

func newPageResult[T any](items []T, page PageRequest, total int64) PageResult[T] {
	pages := 0
	if total > 0 && page.PageSize > 0 {
		pages = int((total + int64(page.PageSize) - 1) / int64(page.PageSize))
	}
	return PageResult[T]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: pages,
	}
}
