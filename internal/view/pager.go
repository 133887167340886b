package view

// Pager contains pagination metadata for the posts list, recomputed from the
// endpoint's total count on every fetch.
type Pager struct {
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	StartIndex int
	EndIndex   int
}

// NewPager derives pager state from a result count and the requested page and
// page size. The page is clamped into [1, TotalPages] (1 when there are no
// results) so stale query parameters can never point past the result set.
func NewPager(totalCount, page, pageSize int) Pager {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if totalCount < 0 {
		totalCount = 0
	}

	totalPages := (totalCount + pageSize - 1) / pageSize
	maxPage := totalPages
	if maxPage < 1 {
		maxPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	p := Pager{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}

	if totalCount > 0 {
		p.StartIndex = (page-1)*pageSize + 1
		p.EndIndex = page * pageSize
		if p.EndIndex > totalCount {
			p.EndIndex = totalCount
		}
	}

	return p
}
