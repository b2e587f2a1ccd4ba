package kernel

// Page represents pagination metadata
type Page struct {
	Limit  int `json:"limit"`  // Maximum records in this page
	Offset int `json:"offset"` // Records skipped before this page
	Total  int `json:"total"`  // Total number of records
}

// Paginated is a generic container for paginated data with metadata
type Paginated[T any] struct {
	Items []T  `json:"items"`      // The paginated items
	Page  Page `json:"pagination"` // Pagination metadata
	Empty bool `json:"empty"`      // Whether the result contains any items
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, limit, offset, total int) Paginated[T] {
	return Paginated[T]{
		Items: items,
		Page: Page{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
		Empty: len(items) == 0,
	}
}

// HasNext returns whether there are more records after this page
func (p Paginated[T]) HasNext() bool {
	return p.Page.Offset+len(p.Items) < p.Page.Total
}
