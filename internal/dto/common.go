package dto

// Pagination is the page descriptor attached to every paginated response.
type Pagination struct {
	Total int `json:"total" example:"25"`
	Page  int `json:"page" example:"1"`
	Limit int `json:"limit" example:"10"`
	Pages int `json:"pages" example:"3"`
}

// NewPagination computes pages as ceil(total/limit).
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}
}

type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
}
