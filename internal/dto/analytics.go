package dto

type AgentStatsResponse struct {
	Success         bool          `json:"success" example:"true"`
	AgentID         string        `json:"agent_id" example:"test-agent@1.0.0"`
	Downloads       int64         `json:"downloads" example:"1000"`
	Views           int64         `json:"views" example:"5000"`
	ReviewCount     int64         `json:"review_count" example:"100"`
	AverageRating   float64       `json:"average_rating" example:"4.5"`
	DownloadsLast7  int64         `json:"downloads_last_7_days" example:"120"`
	DownloadsLast30 int64         `json:"downloads_last_30_days" example:"480"`
	Distribution    map[int]int64 `json:"rating_distribution"`
}

type PlatformTotals struct {
	Agents      int64 `json:"agents" example:"250"`
	Downloads   int64 `json:"downloads" example:"125000"`
	Reviews     int64 `json:"reviews" example:"4300"`
	ActiveUsers int64 `json:"active_users" example:"900"`
}

type ActivityItem struct {
	Type      string `json:"type" example:"install" enums:"install,review"`
	AgentID   string `json:"agent_id" example:"test-agent@1.0.0"`
	UserID    string `json:"user_id" example:"user_abc123"`
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

type PlatformAnalyticsResponse struct {
	Success        bool             `json:"success" example:"true"`
	Totals         PlatformTotals   `json:"totals"`
	TopAgents      []AgentResponse  `json:"top_agents"`
	Categories     map[string]int64 `json:"category_distribution"`
	RecentActivity []ActivityItem   `json:"recent_activity"`
}
