package shared

// Paging bounds for history listings
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Filter carries the paging and ordering of a list query. OrderBy is
// validated by the repository against its own whitelist.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderDir: "desc"}
}

// Normalize clamps paging into range; any direction but "asc" is "desc"
func (f Filter) Normalize() Filter {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if f.OrderDir != "asc" {
		f.OrderDir = "desc"
	}
	return f
}

// Offset is the number of rows before the current page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Paginated is one page of results with the overall count
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps a page of items
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	p := Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return p
}
