package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/postwave/postwave/app/compose"
	"github.com/postwave/postwave/app/database"
	"github.com/postwave/postwave/app/engine"
)

type stubAutomationRepo struct {
	automations map[string]*database.Automation
	created     []*database.Automation
}

func newStubAutomationRepo(automations ...*database.Automation) *stubAutomationRepo {
	repo := &stubAutomationRepo{automations: make(map[string]*database.Automation)}
	for _, a := range automations {
		repo.automations[a.ID] = a
	}
	return repo
}

func (r *stubAutomationRepo) Create(a *database.Automation) error {
	r.created = append(r.created, a)
	r.automations[a.ID] = a
	return nil
}

func (r *stubAutomationRepo) GetByID(id string) (*database.Automation, error) {
	return r.automations[id], nil
}

func (r *stubAutomationRepo) List() ([]database.Automation, error) {
	var all []database.Automation
	for _, a := range r.automations {
		all = append(all, *a)
	}
	return all, nil
}

func (r *stubAutomationRepo) ListActive() ([]database.Automation, error) {
	return nil, nil
}

func (r *stubAutomationRepo) SetActive(id string, active bool) error {
	if a, ok := r.automations[id]; ok {
		a.IsActive = active
	}
	return nil
}

func (r *stubAutomationRepo) MarkFired(id string, firedAt time.Time, dedupeKey string) error {
	return nil
}

type stubRunRepo struct {
	runs map[string]*database.Run
}

func (r *stubRunRepo) Create(run *database.Run) error          { return nil }
func (r *stubRunRepo) CreateFinalized(run *database.Run) error { return nil }
func (r *stubRunRepo) Finalize(id string, status database.RunStatus, result, errMsg string, itemsCreated int, triggerData []byte, completedAt time.Time) error {
	return nil
}

func (r *stubRunRepo) GetByID(id string) (*database.Run, error) {
	return r.runs[id], nil
}

func (r *stubRunRepo) ListByAutomation(automationID string, filter database.RunFilter) ([]database.Run, error) {
	var runs []database.Run
	for _, run := range r.runs {
		if run.AutomationID == automationID {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

func (r *stubRunRepo) CountByStatus(automationID string) (map[database.RunStatus]int, error) {
	return map[database.RunStatus]int{}, nil
}

type stubCredentialRepo struct {
	created []*database.Credential
}

func (r *stubCredentialRepo) Create(credential *database.Credential) error {
	r.created = append(r.created, credential)
	return nil
}

func (r *stubCredentialRepo) Get(workspaceID, clientID, platform string) (*database.Credential, error) {
	return nil, nil
}

type stubNotificationRepo struct {
	notifications []database.Notification
}

func (r *stubNotificationRepo) Create(notification *database.Notification) error { return nil }
func (r *stubNotificationRepo) ListByUser(userID string, limit int) ([]database.Notification, error) {
	var out []database.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

type stubEngine struct {
	lastOptions engine.Options
	runResult   engine.RunResult
	batchResult engine.BatchResult
}

func (e *stubEngine) RunOne(ctx context.Context, a *database.Automation, opts engine.Options) engine.RunResult {
	e.lastOptions = opts
	result := e.runResult
	result.AutomationID = a.ID
	return result
}

func (e *stubEngine) ProcessBatch(ctx context.Context) engine.BatchResult {
	return e.batchResult
}

type testServerDeps struct {
	credentials   *stubCredentialRepo
	notifications *stubNotificationRepo
}

func newTestServer(t *testing.T, repo *stubAutomationRepo, runs *stubRunRepo, eng *stubEngine) http.Handler {
	server, _ := newTestServerWithDeps(t, repo, runs, eng)
	return server
}

func newTestServerWithDeps(t *testing.T, repo *stubAutomationRepo, runs *stubRunRepo, eng *stubEngine) (http.Handler, *testServerDeps) {
	t.Helper()
	if runs == nil {
		runs = &stubRunRepo{runs: make(map[string]*database.Run)}
	}
	deps := &testServerDeps{
		credentials:   &stubCredentialRepo{},
		notifications: &stubNotificationRepo{},
	}
	handler := NewHandler(repo, runs, deps.credentials, deps.notifications, eng, compose.NewProfileCache(t.TempDir()))
	return NewServer(handler, "test-key"), deps
}

func doRequest(server http.Handler, method, path string, body []byte, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	server := newTestServer(t, newStubAutomationRepo(), nil, &stubEngine{})

	if w := doRequest(server, "GET", "/api/automations", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}
	if w := doRequest(server, "GET", "/api/automations", nil, "wrong-key"); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}
	if w := doRequest(server, "GET", "/api/automations", nil, "test-key"); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid key, got %d", w.Code)
	}
}

func TestAPI_BearerTokenAccepted(t *testing.T) {
	server := newTestServer(t, newStubAutomationRepo(), nil, &stubEngine{})

	req := httptest.NewRequest("GET", "/api/automations", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got %d", w.Code)
	}
}

func TestAPI_CreateAutomation(t *testing.T) {
	repo := newStubAutomationRepo()
	server := newTestServer(t, repo, nil, &stubEngine{})

	body := []byte(`{
		"workspace_id": "ws-1",
		"name": "Daily post",
		"trigger_type": "schedule",
		"trigger_config": {"cadence": "daily", "time": "09:00"},
		"content_type": "post",
		"auto_generate_content": true
	}`)

	w := doRequest(server, "POST", "/api/automations", body, "test-key")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if len(repo.created) != 1 {
		t.Fatalf("Expected 1 automation created, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.ID == "" || !created.IsActive {
		t.Errorf("Expected active automation with generated id, got %+v", created)
	}
}

func TestAPI_CreateAutomation_Validation(t *testing.T) {
	server := newTestServer(t, newStubAutomationRepo(), nil, &stubEngine{})

	cases := []struct {
		name string
		body string
	}{
		{"missing workspace", `{"name": "x", "trigger_type": "webhook", "content_type": "post"}`},
		{"unknown content type", `{"workspace_id": "ws", "name": "x", "trigger_type": "webhook", "content_type": "podcast"}`},
		{"invalid trigger", `{"workspace_id": "ws", "name": "x", "trigger_type": "schedule", "trigger_config": {}, "content_type": "post"}`},
	}

	for _, tc := range cases {
		w := doRequest(server, "POST", "/api/automations", []byte(tc.body), "test-key")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestWebhook_DeliversItemToEngine(t *testing.T) {
	a := &database.Automation{
		ID:          "auto-1",
		WorkspaceID: "ws-1",
		Name:        "Hooked",
		IsActive:    true,
		TriggerType: "webhook",
		ContentType: "post",
	}
	eng := &stubEngine{runResult: engine.RunResult{Status: database.RunStatusCompleted, Fired: true}}
	server := newTestServer(t, newStubAutomationRepo(a), nil, eng)

	body := []byte(`{"title": "Delivered", "link": "https://example.com/x", "media_urls": ["a.jpg"]}`)

	w := doRequest(server, "POST", "/hooks/automations/auto-1", body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if eng.lastOptions.Item == nil {
		t.Fatal("Expected payload delivered as source item")
	}
	if eng.lastOptions.Item.Title != "Delivered" {
		t.Errorf("Unexpected item title: %q", eng.lastOptions.Item.Title)
	}
	if len(eng.lastOptions.Item.MediaURLs) != 1 {
		t.Errorf("Expected media urls carried, got %v", eng.lastOptions.Item.MediaURLs)
	}
}

func TestWebhook_RejectsNonWebhookAutomation(t *testing.T) {
	a := &database.Automation{
		ID:          "auto-2",
		IsActive:    true,
		TriggerType: "schedule",
		ContentType: "post",
	}
	server := newTestServer(t, newStubAutomationRepo(a), nil, &stubEngine{})

	w := doRequest(server, "POST", "/hooks/automations/auto-2", []byte(`{"title": "x"}`), "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for non-webhook automation, got %d", w.Code)
	}
}

func TestWebhook_RejectsInactiveAutomation(t *testing.T) {
	a := &database.Automation{
		ID:          "auto-3",
		IsActive:    false,
		TriggerType: "webhook",
		ContentType: "post",
	}
	server := newTestServer(t, newStubAutomationRepo(a), nil, &stubEngine{})

	w := doRequest(server, "POST", "/hooks/automations/auto-3", []byte(`{"title": "x"}`), "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for inactive automation, got %d", w.Code)
	}
}

func TestWebhook_UnknownAutomation(t *testing.T) {
	server := newTestServer(t, newStubAutomationRepo(), nil, &stubEngine{})

	w := doRequest(server, "POST", "/hooks/automations/missing", []byte(`{"title": "x"}`), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestAPI_RunBatchAlwaysReturns200(t *testing.T) {
	eng := &stubEngine{batchResult: engine.BatchResult{Processed: 3, Triggered: 1, Skipped: 1, Failed: 1}}
	server := newTestServer(t, newStubAutomationRepo(), nil, eng)

	w := doRequest(server, "POST", "/api/automations/run", nil, "test-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var result engine.BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode batch result: %v", err)
	}
	if result.Processed != 3 || result.Failed != 1 {
		t.Errorf("Unexpected batch result: %+v", result)
	}
}

func TestAPI_ForceRunAutomation(t *testing.T) {
	a := &database.Automation{
		ID:          "auto-1",
		IsActive:    true,
		TriggerType: "schedule",
		ContentType: "post",
	}
	eng := &stubEngine{runResult: engine.RunResult{Status: database.RunStatusCompleted}}
	server := newTestServer(t, newStubAutomationRepo(a), nil, eng)

	w := doRequest(server, "POST", "/api/automations/auto-1/run", nil, "test-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	if !eng.lastOptions.Force {
		t.Error("Expected force option on manual run")
	}
}

func TestAPI_GetRun(t *testing.T) {
	runs := &stubRunRepo{runs: map[string]*database.Run{
		"run-1": {ID: "run-1", AutomationID: "auto-1", Status: database.RunStatusCompleted, StartedAt: time.Now()},
	}}
	server := newTestServer(t, newStubAutomationRepo(), runs, &stubEngine{})

	if w := doRequest(server, "GET", "/api/runs/run-1", nil, "test-key"); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := doRequest(server, "GET", "/api/runs/missing", nil, "test-key"); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing run, got %d", w.Code)
	}
}

func TestAPI_ListRunsFilterValidation(t *testing.T) {
	a := &database.Automation{ID: "auto-1", IsActive: true, TriggerType: "webhook", ContentType: "post"}
	server := newTestServer(t, newStubAutomationRepo(a), nil, &stubEngine{})

	if w := doRequest(server, "GET", "/api/automations/auto-1/runs?since=not-a-time", nil, "test-key"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid since, got %d", w.Code)
	}
	if w := doRequest(server, "GET", "/api/automations/auto-1/runs?status=completed&limit=10", nil, "test-key"); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for valid filters, got %d", w.Code)
	}
}

func TestAPI_CreateCredential(t *testing.T) {
	server, deps := newTestServerWithDeps(t, newStubAutomationRepo(), nil, &stubEngine{})

	body := []byte(`{"workspace_id": "ws-1", "platform": "linkedin", "access_token": "secret-token"}`)

	w := doRequest(server, "POST", "/api/credentials", body, "test-key")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if len(deps.credentials.created) != 1 {
		t.Fatalf("Expected 1 credential created, got %d", len(deps.credentials.created))
	}
	if deps.credentials.created[0].Platform != "linkedin" {
		t.Errorf("Unexpected platform: %q", deps.credentials.created[0].Platform)
	}

	if bytes.Contains(w.Body.Bytes(), []byte("secret-token")) {
		t.Error("Expected access token to not be echoed back")
	}

	missing := []byte(`{"workspace_id": "ws-1"}`)
	if w := doRequest(server, "POST", "/api/credentials", missing, "test-key"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing fields, got %d", w.Code)
	}
}

func TestAPI_ListNotifications(t *testing.T) {
	server, deps := newTestServerWithDeps(t, newStubAutomationRepo(), nil, &stubEngine{})
	deps.notifications.notifications = []database.Notification{
		{ID: "n-1", UserID: "user-1", Title: "Automation fired: Daily post"},
		{ID: "n-2", UserID: "user-2", Title: "Other user"},
	}

	w := doRequest(server, "GET", "/api/notifications?user_id=user-1", nil, "test-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Total != 1 {
		t.Errorf("Expected 1 notification for user-1, got %d", response.Total)
	}

	if w := doRequest(server, "GET", "/api/notifications", nil, "test-key"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without user_id, got %d", w.Code)
	}
}

func TestAPI_SetAutomationActive(t *testing.T) {
	a := &database.Automation{ID: "auto-1", IsActive: true, TriggerType: "webhook", ContentType: "post"}
	repo := newStubAutomationRepo(a)
	server := newTestServer(t, repo, nil, &stubEngine{})

	w := doRequest(server, "POST", "/api/automations/auto-1/activate", []byte(`{"active": false}`), "test-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if repo.automations["auto-1"].IsActive {
		t.Error("Expected automation deactivated")
	}

	if w := doRequest(server, "POST", "/api/automations/auto-1/activate", []byte(`{}`), "test-key"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing active field, got %d", w.Code)
	}
}
