package registry

import (
	"time"

	"github.com/agenthub/registry/internal/shared"
)

// Agent is one publishable unit. The primary key is name@version, so a
// name can appear once per published version.
type Agent struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null;index" json:"name"`
	Version     string `gorm:"not null" json:"version"`
	Author      string `json:"author"`
	PublisherID string `gorm:"not null;index" json:"publisher_id"`
	Description string `gorm:"not null" json:"description"`

	Category     shared.AgentCategory `gorm:"default:'general';index" json:"category"`
	Tags         shared.StringSlice   `gorm:"type:json" json:"tags,omitempty"`
	Capabilities shared.StringSlice   `gorm:"type:json" json:"capabilities"`
	Dependencies shared.StringSlice   `gorm:"type:json" json:"dependencies,omitempty"`
	Tools        shared.StringSlice   `gorm:"type:json" json:"tools,omitempty"`

	TestCoverage      float64 `gorm:"default:0" json:"test_coverage"`
	PerformanceRating float64 `gorm:"default:0" json:"performance_rating"`
	License           string  `json:"license"`

	Downloads   int64              `gorm:"default:0" json:"downloads"`
	Views       int64              `gorm:"default:0" json:"views"`
	Rating      float64            `gorm:"default:0" json:"rating"`
	ReviewCount int64              `gorm:"default:0" json:"review_count"`
	Status      shared.AgentStatus `gorm:"default:'active'" json:"status"`

	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AgentID derives the registry identity from name and version.
func AgentID(name, version string) string {
	return name + "@" + version
}

type Review struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	AgentID   string    `gorm:"not null;index;index:idx_agent_user_review,unique" json:"agent_id"`
	UserID    string    `gorm:"not null;index:idx_agent_user_review,unique" json:"user_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"not null" json:"comment"`
	Helpful   int64     `gorm:"default:0" json:"helpful"`
	CreatedAt time.Time `json:"created_at"`
}

// Download is an append-only install record, consumed by the recency
// windows in analytics and by per-user recommendation history.
type Download struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	AgentID   string    `gorm:"not null;index" json:"agent_id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Version   string    `json:"version"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
