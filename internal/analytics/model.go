package analytics

import (
	"time"

	"github.com/agenthub/registry/internal/shared"
)

// Event is one tracked platform occurrence: a publish, install, update,
// view or search. Events are append-only.
type Event struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	Type      string         `gorm:"not null;index" json:"type"`
	AgentID   string         `gorm:"index" json:"agent_id,omitempty"`
	UserID    string         `gorm:"index" json:"user_id,omitempty"`
	Metadata  shared.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
