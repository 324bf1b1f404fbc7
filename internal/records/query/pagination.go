package query

// Pagination is the listing metadata returned alongside a page of results.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata for a listing. TotalPages is the
// ceiling of total/limit and 0 when there are no matches at all.
func NewPagination(total int, page Page) Pagination {
	totalPages := 0
	if total > 0 && page.Limit > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}
	return Pagination{
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages,
	}
}
