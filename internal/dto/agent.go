package dto

type AgentResponse struct {
	ID                string   `json:"id" example:"test-agent@1.0.0"`
	Name              string   `json:"name" example:"test-agent"`
	Version           string   `json:"version" example:"1.0.0"`
	Author            string   `json:"author" example:"Dev"`
	PublisherID       string   `json:"publisher_id" example:"user_abc123"`
	Description       string   `json:"description" example:"A test agent for validation purposes"`
	Category          string   `json:"category" example:"development"`
	Tags              []string `json:"tags,omitempty" example:"ci,linting"`
	Capabilities      []string `json:"capabilities" example:"code-review"`
	Dependencies      []string `json:"dependencies,omitempty" example:"helper@1.0.0"`
	Tools             []string `json:"tools,omitempty" example:"git,docker"`
	TestCoverage      float64  `json:"test_coverage" example:"92.5"`
	PerformanceRating float64  `json:"performance_rating" example:"4.2"`
	License           string   `json:"license" example:"MIT"`
	Downloads         int64    `json:"downloads" example:"1000"`
	Views             int64    `json:"views" example:"5000"`
	Rating            float64  `json:"rating" example:"4.5"`
	ReviewCount       int64    `json:"review_count" example:"100"`
	Status            string   `json:"status" example:"active"`
	PublishedAt       string   `json:"published_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt         string   `json:"updated_at" example:"2024-01-20T15:45:00Z"`
}

type PublishResponse struct {
	Success bool          `json:"success" example:"true"`
	Agent   AgentResponse `json:"agent"`
}

type AgentDetailResponse struct {
	Success bool          `json:"success" example:"true"`
	Agent   AgentResponse `json:"agent"`
}

type SearchResponse struct {
	Success    bool            `json:"success" example:"true"`
	Agents     []AgentResponse `json:"agents"`
	Pagination Pagination      `json:"pagination"`
}

type TrendingResponse struct {
	Success   bool            `json:"success" example:"true"`
	Timeframe string          `json:"timeframe" example:"7d"`
	Agents    []AgentResponse `json:"agents"`
}

type RecommendedResponse struct {
	Success bool            `json:"success" example:"true"`
	Agents  []AgentResponse `json:"agents"`
}

type CategoryInfo struct {
	Name        string `json:"name" example:"development"`
	Count       int64  `json:"count" example:"42"`
	Description string `json:"description" example:"Code generation and refactoring agents"`
}

type CategoriesResponse struct {
	Success    bool           `json:"success" example:"true"`
	Categories []CategoryInfo `json:"categories"`
}
