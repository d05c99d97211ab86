package dto

type RateRequest struct {
	AgentID string `json:"agentId" example:"test-agent@1.0.0"`
	Rating  int    `json:"rating" example:"5" minimum:"1" maximum:"5"`
}

type RateResponse struct {
	Success     bool    `json:"success" example:"true"`
	Rating      float64 `json:"rating" example:"4.5"`
	ReviewCount int64   `json:"review_count" example:"10"`
}

type SubmitReviewRequest struct {
	AgentID string `json:"agentId" example:"test-agent@1.0.0"`
	Rating  int    `json:"rating" example:"5" minimum:"1" maximum:"5"`
	Comment string `json:"comment" example:"Works great and is well documented"`
}

type ReviewResponse struct {
	ID        string `json:"id" example:"rev_abc123"`
	AgentID   string `json:"agent_id" example:"test-agent@1.0.0"`
	UserID    string `json:"user_id" example:"user_xyz789"`
	Rating    int    `json:"rating" example:"5"`
	Comment   string `json:"comment" example:"Works great and is well documented"`
	Helpful   int64  `json:"helpful" example:"3"`
	CreatedAt string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type SubmitReviewResponse struct {
	Success bool           `json:"success" example:"true"`
	Review  ReviewResponse `json:"review"`
}

type ReviewListResponse struct {
	Success    bool             `json:"success" example:"true"`
	Reviews    []ReviewResponse `json:"reviews"`
	Pagination Pagination       `json:"pagination"`
}
