package filter

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one slice of a listing.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// Paginate returns the 1-based page of items. page < 1 means the first page;
// size < 1 means DefaultPageSize and sizes above MaxPageSize are capped. A
// page past the end is empty, never nil.
func Paginate[T any](items []T, page, size int) Page[T] {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)

	total := len(items)
	start := total
	if page-1 <= total/size {
		start = min((page-1)*size, total)
	}
	end := min(start+size, total)

	return Page[T]{
		Items:    append(make([]T, 0, end-start), items[start:end]...),
		Total:    total,
		Page:     page,
		PageSize: size,
		HasMore:  end < total,
	}
}

// ParsePage reads a positive integer query value, returning 0 if absent or
// invalid so Paginate applies its default.
func ParsePage(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0
	}
	return n
}
