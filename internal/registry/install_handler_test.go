package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/agenthub/registry/internal/shared"
)

func TestInstallHandler_Install(t *testing.T) {
	store := setupTestStore(t)
	store.Create(context.Background(), testAgent("installer", "1.0.0"))
	tracker := &capturingTracker{}
	h := NewInstallHandler(store, tracker, testLogger())

	body := `{"agentId": "installer@1.0.0"}`
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/marketplace/install", body,
		testPrincipal("user_1", shared.RoleUser))

	if err := h.Install(c); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	var resp struct {
		Success   bool   `json:"success"`
		InstallID string `json:"install_id"`
		Agent     struct {
			Downloads int64 `json:"downloads"`
		} `json:"agent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp.Success || !strings.HasPrefix(resp.InstallID, "dl_") {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Agent.Downloads != 1 {
		t.Errorf("response should reflect the bumped counter, got %d", resp.Agent.Downloads)
	}
	if len(tracker.events) != 1 || tracker.events[0] != shared.EventAgentInstalled {
		t.Errorf("expected install event, got %v", tracker.events)
	}
}

func TestInstallHandler_Install_Errors(t *testing.T) {
	store := setupTestStore(t)
	h := NewInstallHandler(store, NoopTracker{}, testLogger())
	principal := testPrincipal("user_1", shared.RoleUser)

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/marketplace/install", `{"agentId": "ghost@1.0.0"}`, principal)
	if httpStatus(t, h.Install(c)) != http.StatusNotFound {
		t.Error("expected 404 for unknown agent")
	}

	c, _ = newTestContext(t, http.MethodPost, "/api/v1/marketplace/install", `{}`, principal)
	if httpStatus(t, h.Install(c)) != http.StatusBadRequest {
		t.Error("expected 400 without agentId")
	}

	c, _ = newTestContext(t, http.MethodPost, "/api/v1/marketplace/install", `{"agentId": "x@1.0.0"}`, nil)
	if httpStatus(t, h.Install(c)) != http.StatusUnauthorized {
		t.Error("expected 401 without a principal")
	}
}

func TestInstallHandler_CheckUpdates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	store.Create(ctx, testAgent("fresh", "1.0.0"))
	store.Create(ctx, testAgent("stale", "1.0.0"))
	store.Create(ctx, testAgent("stale", "1.10.0"))
	h := NewInstallHandler(store, NoopTracker{}, testLogger())

	body := `{"installed": [
		{"name": "fresh", "version": "1.0.0"},
		{"name": "stale", "version": "1.2.0"},
		{"name": "unknown", "version": "1.0.0"}
	]}`
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/marketplace/updates", body,
		testPrincipal("user_1", shared.RoleUser))

	if err := h.CheckUpdates(c); err != nil {
		t.Fatalf("CheckUpdates() error = %v", err)
	}

	var resp struct {
		Success bool `json:"success"`
		Updates []struct {
			Name           string `json:"name"`
			CurrentVersion string `json:"currentVersion"`
			LatestVersion  string `json:"latestVersion"`
		} `json:"updates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.Updates) != 1 {
		t.Fatalf("expected exactly one update, got %v", resp.Updates)
	}
	up := resp.Updates[0]
	if up.Name != "stale" || up.CurrentVersion != "1.2.0" || up.LatestVersion != "1.10.0" {
		t.Errorf("unexpected update %+v", up)
	}
}

func TestInstallHandler_UpdateInstalled(t *testing.T) {
	store := setupTestStore(t)
	store.Create(context.Background(), testAgent("updater", "2.0.0"))
	tracker := &capturingTracker{}
	h := NewInstallHandler(store, tracker, testLogger())

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/marketplace/update/updater@2.0.0", "",
		testPrincipal("user_1", shared.RoleUser))
	c.SetParamNames("id")
	c.SetParamValues("updater@2.0.0")

	if err := h.UpdateInstalled(c); err != nil {
		t.Fatalf("UpdateInstalled() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	// A re-sync returns the current record without touching counters
	// or appending download rows.
	got, _ := store.GetByID(context.Background(), "updater@2.0.0")
	if got.Downloads != 0 {
		t.Errorf("update must not mutate counters, downloads = %d", got.Downloads)
	}
	downloads, _ := store.DownloadsByUser(context.Background(), "user_1")
	if len(downloads) != 0 {
		t.Errorf("update must not append download records, got %d", len(downloads))
	}
	if len(tracker.events) != 1 || tracker.events[0] != shared.EventAgentUpdated {
		t.Errorf("expected updated event, got %v", tracker.events)
	}
}
