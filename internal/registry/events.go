package registry

import "context"

// EventTracker receives domain events as they happen. The analytics
// store implements it; handlers stay decoupled from how events are
// persisted or forwarded.
type EventTracker interface {
	Track(ctx context.Context, eventType, agentID, userID string, metadata map[string]any)
}

// EmbeddingService turns free text into a vector for semantic search.
type EmbeddingService interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

// NoopTracker discards events. Handler tests use it.
type NoopTracker struct{}

func (NoopTracker) Track(context.Context, string, string, string, map[string]any) {}
