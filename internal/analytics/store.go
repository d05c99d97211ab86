package analytics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/agenthub/registry/internal/registry"
	"github.com/agenthub/registry/internal/shared"
	"gorm.io/gorm"
)

// Store persists events and aggregates platform metrics. It implements
// registry.EventTracker so domain handlers can emit without knowing
// where events land.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Event{})
}

// Track records one event. Tracking is best-effort: a failed insert is
// logged, never surfaced to the request that produced it.
func (s *Store) Track(ctx context.Context, eventType, agentID, userID string, metadata map[string]any) {
	event := &Event{
		ID:        shared.NewID("evt_"),
		Type:      eventType,
		AgentID:   agentID,
		UserID:    userID,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		s.logger.Warn("event tracking failed", "error", err, "type", eventType, "agent_id", agentID)
	}
}

// DownloadsSince counts an agent's install records newer than the cutoff.
func (s *Store) DownloadsSince(ctx context.Context, agentID string, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&registry.Download{}).
		Where("agent_id = ? AND created_at >= ?", agentID, since).
		Count(&count).Error
	return count, err
}

// EventCount counts events of one type, for health and admin reporting.
func (s *Store) EventCount(ctx context.Context, eventType string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Event{}).Where("type = ?", eventType).Count(&count).Error
	return count, err
}

// Totals aggregates the platform-wide counters for the admin dashboard.
// Active users are the distinct accounts that have installed or reviewed
// at least one agent; a registered but dormant account does not count.
func (s *Store) Totals(ctx context.Context) (agents, downloads, reviews, activeUsers int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&registry.Agent{}).Count(&agents).Error; err != nil {
		return
	}
	if err = db.Model(&registry.Download{}).Count(&downloads).Error; err != nil {
		return
	}
	if err = db.Model(&registry.Review{}).Count(&reviews).Error; err != nil {
		return
	}
	err = db.Raw(
		`SELECT COUNT(*) FROM (
			SELECT user_id FROM downloads UNION SELECT user_id FROM reviews
		) active`,
	).Scan(&activeUsers).Error
	return
}

// Activity is one row of the recent-activity feed, merged from install
// and review records.
type Activity struct {
	Type      string
	AgentID   string
	UserID    string
	Timestamp time.Time
}

// RecentActivity merges the newest installs and reviews into one feed,
// newest first, capped at limit.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	db := s.db.WithContext(ctx)

	var downloads []registry.Download
	if err := db.Order("created_at DESC").Limit(limit).Find(&downloads).Error; err != nil {
		return nil, err
	}
	var reviews []registry.Review
	if err := db.Order("created_at DESC").Limit(limit).Find(&reviews).Error; err != nil {
		return nil, err
	}

	activity := make([]Activity, 0, len(downloads)+len(reviews))
	for _, d := range downloads {
		activity = append(activity, Activity{Type: "install", AgentID: d.AgentID, UserID: d.UserID, Timestamp: d.CreatedAt})
	}
	for _, r := range reviews {
		activity = append(activity, Activity{Type: "review", AgentID: r.AgentID, UserID: r.UserID, Timestamp: r.CreatedAt})
	}

	sort.Slice(activity, func(i, j int) bool {
		return activity[i].Timestamp.After(activity[j].Timestamp)
	})
	if len(activity) > limit {
		activity = activity[:limit]
	}
	return activity, nil
}
