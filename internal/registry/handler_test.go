package registry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agenthub/registry/internal/auth"
	"github.com/agenthub/registry/internal/shared"
	"github.com/labstack/echo/v4"
)

type capturingTracker struct {
	events []string
}

func (t *capturingTracker) Track(_ context.Context, eventType, _, _ string, _ map[string]any) {
	t.events = append(t.events, eventType)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPrincipal(userID string, role shared.Role, perms ...shared.Permission) *auth.Principal {
	return &auth.Principal{UserID: userID, Role: role, Permissions: permStrings(perms)}
}

func permStrings(perms []shared.Permission) shared.StringSlice {
	out := make(shared.StringSlice, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func newTestContext(t *testing.T, method, target, body string, principal *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		auth.SetPrincipal(c, principal)
	}
	return c, rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	apiErr, ok := he.Message.(*shared.APIError)
	if !ok {
		t.Fatalf("expected *shared.APIError message, got %T", he.Message)
	}
	return apiErr.Code
}

const validPublishBody = `{
	"name": "test-agent",
	"version": "1.0.0",
	"description": "A test agent for validation purposes",
	"author": "Dev",
	"capabilities": ["code-review"],
	"license": "MIT",
	"category": "development",
	"tags": ["ci"]
}`

func TestHandler_Publish(t *testing.T) {
	store := setupTestStore(t)
	tracker := &capturingTracker{}
	h := NewHandler(store, tracker, testLogger())

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/marketplace/publish", validPublishBody,
		testPrincipal("user_dev", shared.RoleDeveloper, shared.PermissionWrite))

	if err := h.Publish(c); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Agent   struct {
			ID          string  `json:"id"`
			PublisherID string  `json:"publisher_id"`
			Downloads   int64   `json:"downloads"`
			Rating      float64 `json:"rating"`
			Status      string  `json:"status"`
		} `json:"agent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp.Success || resp.Agent.ID != "test-agent@1.0.0" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Agent.PublisherID != "user_dev" {
		t.Errorf("publisher should come from the principal, got %s", resp.Agent.PublisherID)
	}
	if resp.Agent.Downloads != 0 || resp.Agent.Rating != 0 {
		t.Error("counters must start at zero")
	}
	if resp.Agent.Status != "active" {
		t.Errorf("expected active status, got %s", resp.Agent.Status)
	}
	if len(tracker.events) != 1 || tracker.events[0] != shared.EventAgentPublished {
		t.Errorf("expected one publish event, got %v", tracker.events)
	}
}

func TestHandler_Publish_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	h := NewHandler(store, NoopTracker{}, testLogger())
	principal := testPrincipal("user_dev", shared.RoleDeveloper, shared.PermissionWrite)

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/marketplace/publish", validPublishBody, principal)
	if err := h.Publish(c); err != nil {
		t.Fatalf("first publish error = %v", err)
	}

	c, _ = newTestContext(t, http.MethodPost, "/api/v1/marketplace/publish", validPublishBody, principal)
	err := h.Publish(c)
	if httpStatus(t, err) != http.StatusConflict {
		t.Errorf("expected 409 on duplicate id")
	}
	if errorCode(t, err) != shared.CodeAgentExists {
		t.Errorf("expected AGENT_EXISTS code, got %s", errorCode(t, err))
	}
}

func TestHandler_Publish_Validation(t *testing.T) {
	store := setupTestStore(t)
	h := NewHandler(store, NoopTracker{}, testLogger())
	principal := testPrincipal("user_dev", shared.RoleDeveloper, shared.PermissionWrite)

	body := `{"name": "x", "version": "not-semver", "description": "short"}`
	c, _ := newTestContext(t, http.MethodPost, "/api/v1/marketplace/publish", body, principal)
	err := h.Publish(c)
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid payload")
	}
	if errorCode(t, err) != shared.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR code, got %s", errorCode(t, err))
	}

	he := err.(*echo.HTTPError)
	apiErr := he.Message.(*shared.APIError)
	violations, ok := apiErr.Details.([]string)
	if !ok || len(violations) < 3 {
		t.Errorf("details should list every violation, got %v", apiErr.Details)
	}
}

func TestHandler_Publish_RequiresWritePermission(t *testing.T) {
	store := setupTestStore(t)
	h := NewHandler(store, NoopTracker{}, testLogger())

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/marketplace/publish", validPublishBody,
		testPrincipal("user_reader", shared.RoleUser, shared.PermissionRead))
	if httpStatus(t, h.Publish(c)) != http.StatusForbidden {
		t.Error("expected 403 without write permission")
	}

	c, _ = newTestContext(t, http.MethodPost, "/api/v1/marketplace/publish", validPublishBody, nil)
	if httpStatus(t, h.Publish(c)) != http.StatusUnauthorized {
		t.Error("expected 401 without a principal")
	}
}

func TestHandler_Get_IncrementsViews(t *testing.T) {
	store := setupTestStore(t)
	store.Create(context.Background(), testAgent("viewed", "1.0.0"))
	tracker := &capturingTracker{}
	h := NewHandler(store, tracker, testLogger())

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/marketplace/agent/viewed@1.0.0", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("viewed@1.0.0")

	if err := h.Get(c); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	got, _ := store.GetByID(context.Background(), "viewed@1.0.0")
	if got.Views != 1 {
		t.Errorf("expected view counter bump, got %d", got.Views)
	}
	if len(tracker.events) != 1 || tracker.events[0] != shared.EventAgentViewed {
		t.Errorf("expected viewed event, got %v", tracker.events)
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)
	h := NewHandler(store, NoopTracker{}, testLogger())

	c, _ := newTestContext(t, http.MethodGet, "/api/v1/marketplace/agent/missing@1.0.0", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("missing@1.0.0")

	err := h.Get(c)
	if httpStatus(t, err) != http.StatusNotFound {
		t.Error("expected 404 for unknown agent")
	}
	if errorCode(t, err) != shared.CodeNotFound {
		t.Errorf("expected NOT_FOUND code, got %s", errorCode(t, err))
	}
}

func TestHandler_Update_Ownership(t *testing.T) {
	store := setupTestStore(t)
	store.Create(context.Background(), testAgent("owned", "1.0.0"))
	h := NewHandler(store, NoopTracker{}, testLogger())

	patch := `{"description": "An updated description for the agent"}`

	c, _ := newTestContext(t, http.MethodPut, "/api/v1/marketplace/agent/owned@1.0.0", patch,
		testPrincipal("user_other", shared.RoleDeveloper, shared.PermissionWrite))
	c.SetParamNames("id")
	c.SetParamValues("owned@1.0.0")
	if httpStatus(t, h.Update(c)) != http.StatusForbidden {
		t.Error("expected 403 for non-owner")
	}
	unchanged, _ := store.GetByID(context.Background(), "owned@1.0.0")
	if unchanged.Description != "An agent used in tests" {
		t.Errorf("rejected update must not mutate the agent, got %q", unchanged.Description)
	}

	c, rec := newTestContext(t, http.MethodPut, "/api/v1/marketplace/agent/owned@1.0.0", patch,
		testPrincipal("user_pub", shared.RoleDeveloper, shared.PermissionWrite))
	c.SetParamNames("id")
	c.SetParamValues("owned@1.0.0")
	if err := h.Update(c); err != nil {
		t.Fatalf("owner update error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c, _ = newTestContext(t, http.MethodPut, "/api/v1/marketplace/agent/owned@1.0.0", patch,
		testPrincipal("user_admin", shared.RoleAdmin))
	c.SetParamNames("id")
	c.SetParamValues("owned@1.0.0")
	if err := h.Update(c); err != nil {
		t.Errorf("admin update error = %v", err)
	}
}

func TestHandler_Update_DiscardsIdentityFields(t *testing.T) {
	store := setupTestStore(t)
	store.Create(context.Background(), testAgent("immutable", "1.0.0"))
	h := NewHandler(store, NoopTracker{}, testLogger())

	patch := `{"name": "hijacked", "version": "9.9.9", "downloads": 9999, "description": "A legitimate description update"}`
	c, _ := newTestContext(t, http.MethodPut, "/api/v1/marketplace/agent/immutable@1.0.0", patch,
		testPrincipal("user_pub", shared.RoleDeveloper, shared.PermissionWrite))
	c.SetParamNames("id")
	c.SetParamValues("immutable@1.0.0")

	if err := h.Update(c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := store.GetByID(context.Background(), "immutable@1.0.0")
	if got.Name != "immutable" || got.Version != "1.0.0" || got.Downloads != 0 {
		t.Errorf("identity fields must not change: %+v", got)
	}
	if got.Description != "A legitimate description update" {
		t.Errorf("mutable field should apply, got %q", got.Description)
	}
}

func TestHandler_Delete(t *testing.T) {
	store := setupTestStore(t)
	store.Create(context.Background(), testAgent("deletable", "1.0.0"))
	h := NewHandler(store, NoopTracker{}, testLogger())

	c, _ := newTestContext(t, http.MethodDelete, "/api/v1/marketplace/agent/deletable@1.0.0", "",
		testPrincipal("user_other", shared.RoleUser))
	c.SetParamNames("id")
	c.SetParamValues("deletable@1.0.0")
	if httpStatus(t, h.Delete(c)) != http.StatusForbidden {
		t.Error("expected 403 for non-owner delete")
	}

	c, rec := newTestContext(t, http.MethodDelete, "/api/v1/marketplace/agent/deletable@1.0.0", "",
		testPrincipal("user_pub", shared.RoleDeveloper))
	c.SetParamNames("id")
	c.SetParamValues("deletable@1.0.0")
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	if _, err := store.GetByID(context.Background(), "deletable@1.0.0"); err != shared.ErrNotFound {
		t.Error("agent should be gone after delete")
	}
}
