package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params is a normalized page request (page numbering starts at 1).
type Params struct {
	Page     int
	PageSize int
}

// New normalizes raw page/size values; invalid values fall back to defaults.
func New(page, pageSize int) Params {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Params{Page: page, PageSize: pageSize}
}

func (p Params) Limit() int  { return p.PageSize }
func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }

// Page describes one page of items.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	HasNext  bool  `json:"hasNext"`
	HasPrev  bool  `json:"hasPrev"`
	Total    int64 `json:"total"`
}

// FromTotal wraps a page already cut by the database.
func FromTotal[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasPrev:  p.Page > 1,
		HasNext:  int64(p.Offset()+len(items)) < total,
		Total:    total,
	}
}

// Paginate cuts an in-memory slice.
func Paginate[T any](items []T, p Params) Page[T] {
	total := len(items)

	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}

	return FromTotal(items[start:end], int64(total), p)
}
