package controllers

import "strconv"

// pageWindow is the parsed offset-pagination request.
type pageWindow struct {
	Page   int
	Limit  int
	Offset int
}

// parsePagination clamps page/limit query values, falling back to the
// endpoint's default page size.
func parsePagination(pageStr, limitStr string, defaultLimit int) pageWindow {
	page := 1
	limit := defaultLimit
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return pageWindow{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// postPagination is the pagination envelope for post listings.
type postPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalPosts  int64 `json:"totalPosts"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

func newPostPagination(w pageWindow, total int64) postPagination {
	totalPages := int((total + int64(w.Limit) - 1) / int64(w.Limit))
	return postPagination{
		CurrentPage: w.Page,
		TotalPages:  totalPages,
		TotalPosts:  total,
		HasNextPage: w.Page < totalPages,
		HasPrevPage: w.Page > 1,
		Limit:       w.Limit,
	}
}

// listPagination is the lighter envelope used by comment and like listings.
type listPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasMore     bool  `json:"hasMore"`
}

func newListPagination(w pageWindow, total int64) listPagination {
	return listPagination{
		CurrentPage: w.Page,
		TotalPages:  int((total + int64(w.Limit) - 1) / int64(w.Limit)),
		Total:       total,
		HasMore:     int64(w.Page*w.Limit) < total,
	}
}
