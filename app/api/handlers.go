package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/postwave/postwave/app/automation"
	"github.com/postwave/postwave/app/compose"
	"github.com/postwave/postwave/app/content"
	"github.com/postwave/postwave/app/database"
	"github.com/postwave/postwave/app/engine"
	"github.com/postwave/postwave/app/feed"
)

func NewHandler(automationRepo database.AutomationRepository, runRepo database.RunRepository,
	credentialRepo database.CredentialRepository, notificationRepo database.NotificationRepository,
	eng EngineInterface, profileCache *compose.ProfileCache) *Handler {
	return &Handler{
		automationRepo:   automationRepo,
		runRepo:          runRepo,
		credentialRepo:   credentialRepo,
		notificationRepo: notificationRepo,
		engine:           eng,
		profileCache:     profileCache,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if automations, err := h.automationRepo.List(); err == nil {
		health["automations"] = len(automations)
	}

	health["loaded_profiles"] = h.profileCache.GetProfileCount()

	c.JSON(http.StatusOK, health)
}

type webhookPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Content     string   `json:"content"`
	MediaURLs   []string `json:"media_urls"`
}

// HandleWebhook executes a webhook automation with the delivered payload as
// the source item.
func (h *Handler) HandleWebhook(c *gin.Context) {
	id := c.Param("id")

	a, err := h.automationRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_automation", "automation", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Automation not found"})
		return
	}

	if a.TriggerType != string(automation.TriggerTypeWebhook) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Automation does not accept webhook deliveries"})
		return
	}
	if !a.IsActive {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Automation is not active"})
		return
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	item := feed.Item{
		GUID:        payload.Link,
		Title:       payload.Title,
		Link:        payload.Link,
		Description: payload.Description,
		Content:     payload.Content,
		PublishedAt: time.Now(),
		MediaURLs:   payload.MediaURLs,
	}

	result := h.engine.RunOne(c.Request.Context(), a, engine.Options{Item: &item})

	c.JSON(http.StatusOK, result)
}

func (h *Handler) APIListAutomations(c *gin.Context) {
	automations, err := h.automationRepo.List()
	if err != nil {
		slog.Error("Database error", "operation", "list_automations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(automations))
	for i := range automations {
		items = append(items, automationJSON(&automations[i]))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"automations": items,
		"total":       len(items),
	})
}

type createAutomationRequest struct {
	WorkspaceID         string          `json:"workspace_id"`
	ClientID            string          `json:"client_id"`
	Name                string          `json:"name"`
	TriggerType         string          `json:"trigger_type"`
	TriggerConfig       json.RawMessage `json:"trigger_config"`
	ContentType         string          `json:"content_type"`
	Platform            string          `json:"platform"`
	Bucket              string          `json:"bucket"`
	Template            string          `json:"template"`
	AutoGenerateContent bool            `json:"auto_generate_content"`
	AutoGenerateImage   bool            `json:"auto_generate_image"`
	AutoPublish         bool            `json:"auto_publish"`
	ImageStyle          string          `json:"image_style"`
	ImageTemplate       string          `json:"image_template"`
	CreatedBy           string          `json:"created_by"`
}

func (h *Handler) APICreateAutomation(c *gin.Context) {
	var req createAutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.WorkspaceID == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id and name are required"})
		return
	}

	if !content.Known(content.Kind(req.ContentType)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown content_type"})
		return
	}

	if _, err := automation.ParseTrigger(req.TriggerType, req.TriggerConfig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trigger: " + err.Error()})
		return
	}

	a := &database.Automation{
		ID:                  uuid.NewString(),
		WorkspaceID:         req.WorkspaceID,
		ClientID:            req.ClientID,
		Name:                req.Name,
		IsActive:            true,
		TriggerType:         req.TriggerType,
		TriggerConfig:       req.TriggerConfig,
		ContentType:         req.ContentType,
		Platform:            req.Platform,
		Bucket:              req.Bucket,
		Template:            req.Template,
		AutoGenerateContent: req.AutoGenerateContent,
		AutoGenerateImage:   req.AutoGenerateImage,
		AutoPublish:         req.AutoPublish,
		ImageStyle:          req.ImageStyle,
		ImageTemplate:       req.ImageTemplate,
		CreatedBy:           req.CreatedBy,
	}

	if err := h.automationRepo.Create(a); err != nil {
		slog.Error("Database error", "operation", "create_automation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, automationJSON(a))
}

func (h *Handler) APIGetAutomation(c *gin.Context) {
	id := c.Param("id")

	a, err := h.automationRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_automation", "automation", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Automation not found"})
		return
	}

	c.JSON(http.StatusOK, automationJSON(a))
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) APISetAutomationActive(c *gin.Context) {
	id := c.Param("id")

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain an \"active\" boolean"})
		return
	}

	a, err := h.automationRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_automation", "automation", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Automation not found"})
		return
	}

	if err := h.automationRepo.SetActive(id, *req.Active); err != nil {
		slog.Error("Database error", "operation", "set_active", "automation", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": *req.Active})
}

// APIRunBatch evaluates all active automations synchronously and returns the
// tally. The response is 200 regardless of individual outcomes; per-run
// statuses are in the body.
func (h *Handler) APIRunBatch(c *gin.Context) {
	result := h.engine.ProcessBatch(c.Request.Context())
	c.JSON(http.StatusOK, result)
}

// APIRunAutomation forces one automation to fire now, bypassing the
// idempotency guards.
func (h *Handler) APIRunAutomation(c *gin.Context) {
	id := c.Param("id")

	a, err := h.automationRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_automation", "automation", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Automation not found"})
		return
	}

	result := h.engine.RunOne(c.Request.Context(), a, engine.Options{Force: true})

	c.JSON(http.StatusOK, result)
}

func (h *Handler) APIListRuns(c *gin.Context) {
	id := c.Param("id")

	a, err := h.automationRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_automation", "automation", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Automation not found"})
		return
	}

	filter, err := parseRunFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runs, err := h.runRepo.ListByAutomation(id, filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "automation", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(runs))
	for i := range runs {
		items = append(items, runJSON(&runs[i]))
	}

	response := map[string]interface{}{
		"automation_id": id,
		"runs":          items,
		"total":         len(items),
	}

	if counts, err := h.runRepo.CountByStatus(id); err == nil {
		byStatus := make(map[string]int, len(counts))
		for status, count := range counts {
			byStatus[string(status)] = count
		}
		response["by_status"] = byStatus
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIGetRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.runRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.JSON(http.StatusOK, runJSON(run))
}

type createCredentialRequest struct {
	WorkspaceID string `json:"workspace_id"`
	ClientID    string `json:"client_id"`
	Platform    string `json:"platform"`
	AccessToken string `json:"access_token"`
}

func (h *Handler) APICreateCredential(c *gin.Context) {
	var req createCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.WorkspaceID == "" || req.Platform == "" || req.AccessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id, platform and access_token are required"})
		return
	}

	credential := &database.Credential{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		ClientID:    req.ClientID,
		Platform:    req.Platform,
		AccessToken: req.AccessToken,
	}

	if err := h.credentialRepo.Create(credential); err != nil {
		slog.Error("Database error", "operation", "create_credential", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// The token itself is never echoed back
	c.JSON(http.StatusCreated, gin.H{
		"id":           credential.ID,
		"workspace_id": credential.WorkspaceID,
		"client_id":    credential.ClientID,
		"platform":     credential.Platform,
	})
}

func (h *Handler) APIListNotifications(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = n
	}

	notifications, err := h.notificationRepo.ListByUser(userID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_notifications", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, map[string]interface{}{
			"id":         n.ID,
			"title":      n.Title,
			"message":    n.Message,
			"refs":       n.Refs,
			"created_at": n.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": items,
		"total":         len(items),
	})
}

func parseRunFilter(c *gin.Context) (database.RunFilter, error) {
	var filter database.RunFilter

	if status := c.Query("status"); status != "" {
		filter.Status = database.RunStatus(status)
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, errInvalidParam("since")
		}
		filter.Since = &t
	}

	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return filter, errInvalidParam("until")
		}
		filter.Until = &t
	}

	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return filter, errInvalidParam("limit")
		}
		filter.Limit = n
	}

	return filter, nil
}

type paramError string

func (e paramError) Error() string {
	return "Invalid " + string(e) + " parameter"
}

func errInvalidParam(name string) error {
	return paramError(name)
}

func automationJSON(a *database.Automation) map[string]interface{} {
	info := map[string]interface{}{
		"id":                    a.ID,
		"workspace_id":          a.WorkspaceID,
		"client_id":             a.ClientID,
		"name":                  a.Name,
		"is_active":             a.IsActive,
		"trigger_type":          a.TriggerType,
		"trigger_config":        json.RawMessage(a.TriggerConfig),
		"content_type":          a.ContentType,
		"platform":              a.Platform,
		"bucket":                a.Bucket,
		"auto_generate_content": a.AutoGenerateContent,
		"auto_generate_image":   a.AutoGenerateImage,
		"auto_publish":          a.AutoPublish,
		"items_created":         a.ItemsCreated,
		"created_at":            a.CreatedAt,
		"updated_at":            a.UpdatedAt,
	}

	if a.LastTriggeredAt != nil {
		info["last_triggered_at"] = a.LastTriggeredAt
	}

	return info
}

func runJSON(run *database.Run) map[string]interface{} {
	info := map[string]interface{}{
		"id":            run.ID,
		"automation_id": run.AutomationID,
		"workspace_id":  run.WorkspaceID,
		"status":        string(run.Status),
		"started_at":    run.StartedAt,
		"duration_ms":   run.DurationMs,
		"items_created": run.ItemsCreated,
	}

	if run.CompletedAt != nil {
		info["completed_at"] = run.CompletedAt
	}
	if run.Result != "" {
		info["result"] = run.Result
	}
	if run.Error != "" {
		info["error"] = run.Error
	}
	if len(run.TriggerData) > 0 {
		info["trigger_data"] = json.RawMessage(run.TriggerData)
	}

	return info
}
