package domain

// PaginationParams holds offset-based pagination for event and registration
// listings. Clamping to sane defaults happens at the HTTP boundary; repository
// code can assume Page >= 1 and PageSize >= 1.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the 0-based row offset for the current page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}
