package analytics

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agenthub/registry/internal/auth"
	"github.com/agenthub/registry/internal/registry"
	"github.com/agenthub/registry/internal/shared"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func newStatsContext(principal *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		auth.SetPrincipal(c, principal)
	}
	return c, rec
}

func newTestHandler(t *testing.T) (*Handler, *registry.Store, *gorm.DB) {
	store, registryStore, db := setupAnalytics(t)
	h := NewHandler(store, registryStore, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h, registryStore, db
}

func TestHandler_AgentStats(t *testing.T) {
	h, registryStore, db := newTestHandler(t)
	ctx := context.Background()

	a := seedAgent(t, registryStore, "measured")
	registryStore.Install(ctx, a.ID, "user_1", "1.0.0")
	registryStore.Install(ctx, a.ID, "user_2", "1.0.0")
	registryStore.CreateReview(ctx, &registry.Review{
		AgentID: a.ID,
		UserID:  "user_1",
		Rating:  5,
		Comment: "a sufficiently long comment",
	})

	// One install predates both windows.
	db.Model(&registry.Download{}).Where("user_id = ?", "user_2").
		Update("created_at", time.Now().AddDate(0, 0, -40))

	c, rec := newStatsContext(nil)
	c.SetParamNames("agentId")
	c.SetParamValues(a.ID)

	if err := h.AgentStats(c); err != nil {
		t.Fatalf("AgentStats() error = %v", err)
	}

	var resp struct {
		Success         bool          `json:"success"`
		AgentID         string        `json:"agent_id"`
		Downloads       int64         `json:"downloads"`
		AverageRating   float64       `json:"average_rating"`
		DownloadsLast7  int64         `json:"downloads_last_7_days"`
		DownloadsLast30 int64         `json:"downloads_last_30_days"`
		Distribution    map[int]int64 `json:"rating_distribution"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.AgentID != a.ID || resp.Downloads != 2 {
		t.Errorf("unexpected stats %+v", resp)
	}
	if resp.DownloadsLast7 != 1 || resp.DownloadsLast30 != 1 {
		t.Errorf("window counts wrong: last7=%d last30=%d", resp.DownloadsLast7, resp.DownloadsLast30)
	}
	if resp.AverageRating != 5 || resp.Distribution[5] != 1 {
		t.Errorf("rating stats wrong: %+v", resp)
	}
}

func TestHandler_AgentStats_NotFound(t *testing.T) {
	h, _, _ := newTestHandler(t)

	c, _ := newStatsContext(nil)
	c.SetParamNames("agentId")
	c.SetParamValues("ghost@1.0.0")

	err := h.AgentStats(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_Platform_AdminOnly(t *testing.T) {
	h, _, _ := newTestHandler(t)

	c, _ := newStatsContext(nil)
	if he, ok := h.Platform(c).(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Error("expected 401 without a principal")
	}

	c, _ = newStatsContext(&auth.Principal{UserID: "user_1", Role: shared.RoleDeveloper})
	if he, ok := h.Platform(c).(*echo.HTTPError); !ok || he.Code != http.StatusForbidden {
		t.Error("expected 403 for non-admin")
	}
}

func TestHandler_Platform(t *testing.T) {
	h, registryStore, _ := newTestHandler(t)
	ctx := context.Background()

	a := seedAgent(t, registryStore, "flagship")
	registryStore.Install(ctx, a.ID, "user_1", "1.0.0")

	c, rec := newStatsContext(&auth.Principal{UserID: "user_admin", Role: shared.RoleAdmin})
	if err := h.Platform(c); err != nil {
		t.Fatalf("Platform() error = %v", err)
	}

	var resp struct {
		Success bool `json:"success"`
		Totals  struct {
			Agents      int64 `json:"agents"`
			Downloads   int64 `json:"downloads"`
			ActiveUsers int64 `json:"active_users"`
		} `json:"totals"`
		TopAgents      []struct{ Name string } `json:"top_agents"`
		Categories     map[string]int64        `json:"category_distribution"`
		RecentActivity []struct {
			Type string `json:"type"`
		} `json:"recent_activity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Totals.Agents != 1 || resp.Totals.Downloads != 1 || resp.Totals.ActiveUsers != 1 {
		t.Errorf("unexpected totals %+v", resp.Totals)
	}
	if len(resp.TopAgents) != 1 || resp.TopAgents[0].Name != "flagship" {
		t.Errorf("unexpected top agents %v", resp.TopAgents)
	}
	if resp.Categories["development"] != 1 {
		t.Errorf("unexpected category distribution %v", resp.Categories)
	}
	if len(resp.RecentActivity) != 1 || resp.RecentActivity[0].Type != "install" {
		t.Errorf("unexpected activity %v", resp.RecentActivity)
	}
}
