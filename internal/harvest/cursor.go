package harvest

import "fmt"

// ResultWindowCeiling is the portal's hard limit on the total number of
// results retrievable across all pages of a single query. A request whose
// window would straddle the ceiling is never issued.
const ResultWindowCeiling = 9999

// DefaultPageSize matches the portal's practical per-request maximum.
const DefaultPageSize = 500

// PageCursor tracks per-partition pagination state. Offsets strictly
// increase by the number of records each page actually returned, and the
// cursor refuses to advance past the result-window ceiling.
type PageCursor struct {
	offset   int
	pageSize int
}

// NewPageCursor returns a cursor positioned at offset zero.
func NewPageCursor(pageSize int) (*PageCursor, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be > 0, got %d", pageSize)
	}
	if pageSize > ResultWindowCeiling {
		return nil, fmt.Errorf("page size %d exceeds result window ceiling %d", pageSize, ResultWindowCeiling)
	}
	return &PageCursor{pageSize: pageSize}, nil
}

// Offset is the offset of the next page request.
func (c *PageCursor) Offset() int { return c.offset }

// PageSize is the fixed limit sent with each request.
func (c *PageCursor) PageSize() int { return c.pageSize }

// InWindow reports whether the next page request fits entirely inside the
// result window. When false, the partition can only be partially covered.
func (c *PageCursor) InWindow() bool {
	return c.offset+c.pageSize <= ResultWindowCeiling
}

// Advance moves the cursor past a successfully fetched page. The returned
// count must be positive; a zero-record page is an exhaustion signal and
// must not advance the cursor.
func (c *PageCursor) Advance(returned int) error {
	if returned <= 0 {
		return fmt.Errorf("cursor advance requires a positive record count, got %d", returned)
	}
	c.offset += returned
	return nil
}
