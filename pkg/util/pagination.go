package util

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-indexed page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage normalizes raw page parameters.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Skip is the number of records preceding the page.
func (p Page) Skip() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Paginated is the list envelope returned by every list operation.
type Paginated[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPaginated builds the envelope for an already sliced page.
func NewPaginated[T any](data []T, total int, p Page) Paginated[T] {
	if data == nil {
		data = []T{}
	}
	return Paginated[T]{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// Slice returns the page window of items. Out-of-range pages yield an empty slice.
func Slice[T any](items []T, p Page) []T {
	start := p.Skip()
	if start >= len(items) || start < 0 {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Paginate slices a fully materialized result set and wraps it in the envelope.
func Paginate[T any](items []T, p Page) Paginated[T] {
	return NewPaginated(Slice(items, p), len(items), p)
}
