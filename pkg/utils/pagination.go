package utils

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit far from int overflow
	MaxPage = 100000
)

// PaginationParams holds pagination request parameters
type PaginationParams struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// PaginationMeta holds pagination response metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

// GetPaginationParams extracts page and limit with defaults.
// Page defaults to 1 and is capped at MaxPage; limit defaults to
// DefaultPageLimit and is capped at MaxPageLimit.
func GetPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

// CalculateOffset returns the SQL offset
func (p PaginationParams) CalculateOffset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// CalculateMeta generates pagination metadata. A non-positive limit means a
// single page holding everything.
func CalculateMeta(totalCount int64, page, limit int) PaginationMeta {
	meta := PaginationMeta{Page: page, Limit: limit, TotalCount: totalCount}
	if limit <= 0 {
		meta.Page, meta.Limit, meta.TotalPages = 1, int(totalCount), 1
		return meta
	}
	if totalCount > 0 {
		meta.TotalPages = int((totalCount + int64(limit) - 1) / int64(limit))
	}
	return meta
}
