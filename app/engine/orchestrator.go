package engine

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/postwave/postwave/app/automation"
	"github.com/postwave/postwave/app/clients"
	"github.com/postwave/postwave/app/compose"
	"github.com/postwave/postwave/app/content"
	"github.com/postwave/postwave/app/database"
	"github.com/postwave/postwave/app/feed"
)

const (
	skipReasonPrefix  = "trigger not eligible: "
	previewLength     = 160
	partMediaCap      = 4
	defaultImageStyle = "photo"
)

// Deps collects the orchestrator's collaborators.
type Deps struct {
	AutomationRepo   database.AutomationRepository
	RunRepo          database.RunRepository
	ArtifactRepo     database.ArtifactRepository
	CredentialRepo   database.CredentialRepository
	NotificationRepo database.NotificationRepository

	Evaluator  *automation.Evaluator
	FeedSource automation.FeedSource
	Composer   *compose.Composer
	Profiles   *compose.ProfileCache
	Research   *compose.Research

	Generator ContentGenerator
	Imager    ImageGenerator
	Publisher Publisher

	WorkerCount int
}

// Orchestrator owns one execution attempt end to end: run record, artifact
// creation, content and image generation, publishing, bookkeeping and
// notification, with independent failure isolation per step.
type Orchestrator struct {
	deps   Deps
	leases *leaseTable
	now    func() time.Time
}

func New(deps Deps) *Orchestrator {
	if deps.WorkerCount <= 0 {
		deps.WorkerCount = 1
	}
	return &Orchestrator{
		deps:   deps,
		leases: newLeaseTable(),
		now:    time.Now,
	}
}

// ProcessBatch evaluates all active automations. One automation's failure
// never aborts the batch; the caller only ever sees the summary.
func (o *Orchestrator) ProcessBatch(ctx context.Context) BatchResult {
	automations, err := o.deps.AutomationRepo.ListActive()
	if err != nil {
		slog.Error("Failed to load active automations", "error", err)
		return BatchResult{}
	}

	var mu sync.Mutex
	result := BatchResult{Processed: len(automations)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.deps.WorkerCount)

	for i := range automations {
		a := automations[i]
		g.Go(func() error {
			runResult := o.RunOne(gctx, &a, Options{})

			mu.Lock()
			defer mu.Unlock()
			result.Results = append(result.Results, runResult)
			switch runResult.Status {
			case database.RunStatusCompleted:
				result.Triggered++
			case database.RunStatusFailed:
				result.Failed++
			default:
				result.Skipped++
			}
			return nil
		})
	}

	g.Wait()

	slog.Info("Batch evaluation completed",
		"processed", result.Processed,
		"triggered", result.Triggered,
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result
}

// RunOne executes one evaluation attempt for one automation. All errors are
// captured into the run record; nothing escapes to the caller beyond the
// result summary.
func (o *Orchestrator) RunOne(ctx context.Context, a *database.Automation, opts Options) RunResult {
	result := RunResult{AutomationID: a.ID, Status: database.RunStatusSkipped}

	if !o.leases.TryAcquire(a.ID) {
		result.Reason = "run already in progress"
		return result
	}
	defer o.leases.Release(a.ID)

	now := o.now()

	trigger, err := automation.ParseTrigger(a.TriggerType, a.TriggerConfig)
	if err != nil {
		return o.recordFailedDecision(a, now, fmt.Errorf("invalid trigger config: %w", err), result)
	}

	var decision automation.Decision
	switch {
	case opts.Item != nil:
		// Webhook delivery: the payload stands in for evaluation.
		decision = automation.Decision{Fire: true, FreshItem: opts.Item}
	case opts.Force:
		decision = o.forceDecision(ctx, trigger)
	default:
		decision = o.deps.Evaluator.Run(ctx, trigger, a.LastTriggeredAt, now)
	}

	if !decision.Fire {
		return o.recordSkip(a, now, decision.Reason, result)
	}

	run := &database.Run{
		ID:           uuid.NewString(),
		AutomationID: a.ID,
		WorkspaceID:  a.WorkspaceID,
		StartedAt:    now,
	}
	if err := o.deps.RunRepo.Create(run); err != nil {
		// Nothing has been recorded and no side effect happened yet.
		slog.Error("Failed to create run record", "automation", a.ID, "error", err)
		result.Status = database.RunStatusFailed
		result.Error = err.Error()
		return result
	}

	result.RunID = run.ID
	result.Fired = true

	outcome, pipelineErr := o.executePipeline(ctx, a, run, decision, now)
	triggerData, err := json.Marshal(outcome.TriggerData)
	if err != nil {
		triggerData = []byte("{}")
	}

	completedAt := o.now()

	if pipelineErr != nil {
		slog.Error("Automation run failed", "automation", a.ID, "run", run.ID, "error", pipelineErr)
		if err := o.deps.RunRepo.Finalize(run.ID, database.RunStatusFailed, "", pipelineErr.Error(), outcome.ItemsCreated, triggerData, completedAt); err != nil {
			slog.Error("Failed to finalize run", "run", run.ID, "error", err)
		}
		result.Status = database.RunStatusFailed
		result.Error = pipelineErr.Error()
		result.ArtifactID = outcome.TriggerData.ArtifactID
		return result
	}

	if err := o.deps.RunRepo.Finalize(run.ID, database.RunStatusCompleted, outcome.Summary, "", outcome.ItemsCreated, triggerData, completedAt); err != nil {
		slog.Error("Failed to finalize run", "run", run.ID, "error", err)
	}

	slog.Info("Automation run completed",
		"automation", a.ID,
		"run", run.ID,
		"duration", completedAt.Sub(now),
		"summary", outcome.Summary)

	result.Status = database.RunStatusCompleted
	result.ArtifactID = outcome.TriggerData.ArtifactID
	return result
}

// forceDecision builds a fire decision for a manual run, bypassing the
// already-fired-today and same-guid guards.
func (o *Orchestrator) forceDecision(ctx context.Context, trigger automation.Trigger) automation.Decision {
	if feedTrigger, ok := trigger.(automation.FeedTrigger); ok {
		items := o.deps.FeedSource.Run(ctx, feedTrigger.URL)
		if len(items) > 0 {
			return automation.Decision{Fire: true, FreshItem: &items[0], DedupeKey: items[0].GUID}
		}
	}
	return automation.Decision{Fire: true}
}

type pipelineOutcome struct {
	TriggerData  TriggerData
	Summary      string
	ItemsCreated int
}

// executePipeline runs steps 3-8 for a fired automation: artifact creation,
// optional content generation, optional image generation, optional
// publishing, bookkeeping and notification. Step errors that a later step
// does not depend on are recorded and do not abort the pipeline; a returned
// error fails the whole run.
func (o *Orchestrator) executePipeline(ctx context.Context, a *database.Automation, run *database.Run, decision automation.Decision, now time.Time) (pipelineOutcome, error) {
	var outcome pipelineOutcome

	kind := content.Kind(a.ContentType)
	info := content.Info(kind)
	platform := cmp.Or(a.Platform, info.DefaultPlatform)
	bucket := cmp.Or(a.Bucket, info.DefaultBucket)
	item := decision.FreshItem

	artifact := &database.Artifact{
		ID:           uuid.NewString(),
		WorkspaceID:  a.WorkspaceID,
		ClientID:     a.ClientID,
		AutomationID: a.ID,
		Title:        artifactTitle(a, item, now),
		Platform:     platform,
		ContentType:  string(kind),
		Bucket:       bucket,
		Metadata:     map[string]interface{}{},
		Status:       database.ArtifactStatusDraft,
	}
	if item != nil {
		artifact.Description = content.Truncate(item.Description, 500)
		artifact.MediaURLs = item.MediaURLs
		outcome.TriggerData.Source = &SourceInfo{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: item.PublishedAt,
		}
	}

	if err := o.deps.ArtifactRepo.Create(artifact); err != nil {
		return outcome, fmt.Errorf("failed to create artifact: %w", err)
	}

	outcome.TriggerData.ArtifactID = artifact.ID
	outcome.ItemsCreated = 1

	var summary []string
	summary = append(summary, "created 1 artifact")

	if a.AutoGenerateContent {
		if err := o.generateContent(ctx, a, artifact, item, kind, platform, now, &outcome); err != nil {
			// Generation failure is local: image generation does not
			// depend on text, publishing is guarded below.
			outcome.TriggerData.GenerateError = err.Error()
			summary = append(summary, "content generation failed")
			slog.Warn("Content generation failed", "automation", a.ID, "error", err)
		} else {
			summary = append(summary, "content generated")
		}
	}

	if a.AutoGenerateImage {
		if err := o.generateImage(ctx, a, artifact, item); err != nil {
			outcome.TriggerData.ImageError = err.Error()
			summary = append(summary, "image generation failed")
			slog.Warn("Image generation failed", "automation", a.ID, "error", err)
		} else {
			summary = append(summary, "image generated")
		}
	}

	if a.AutoPublish {
		publishOutcome, err := o.publish(ctx, a, artifact, platform)
		if err != nil {
			return outcome, err
		}
		outcome.TriggerData.Publish = publishOutcome
		switch {
		case publishOutcome.Published:
			summary = append(summary, "published to "+platform)
		case publishOutcome.SkippedReason != "":
			summary = append(summary, "publish skipped: "+publishOutcome.SkippedReason)
		default:
			summary = append(summary, "publish failed")
		}
	}

	if err := o.deps.AutomationRepo.MarkFired(a.ID, now, decision.DedupeKey); err != nil {
		return outcome, fmt.Errorf("failed to update automation bookkeeping: %w", err)
	}

	if err := o.notify(a, run, artifact, strings.Join(summary, "; ")); err != nil {
		return outcome, fmt.Errorf("failed to create notification: %w", err)
	}

	outcome.Summary = strings.Join(summary, "; ")
	return outcome, nil
}

func (o *Orchestrator) generateContent(ctx context.Context, a *database.Automation, artifact *database.Artifact, item *feed.Item, kind content.Kind, platform string, now time.Time, outcome *pipelineOutcome) error {
	info := content.Info(kind)

	research := ""
	if info.LongForm && item != nil {
		research = o.deps.Research.Run(ctx, item.Link)
	}

	profile := o.deps.Profiles.Get(cmp.Or(a.ClientID, a.WorkspaceID))
	var examples []string
	if profile != nil {
		examples = profile.Examples
	}

	prompt := o.deps.Composer.Run(compose.Request{
		Template: a.Template,
		Kind:     kind,
		Platform: platform,
		Item:     item,
		Profile:  profile,
		Examples: examples,
		Research: research,
		Now:      now,
	})

	text, err := o.deps.Generator.Generate(ctx, prompt, fmt.Sprintf("Target content kind: %s.", string(kind)))
	if err != nil {
		return err
	}

	metadata := artifact.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	if parts := content.ParseParts(text, kind); parts != nil {
		content.DistributeMedia(parts, artifact.MediaURLs, partMediaCap)
		metadata["parts"] = parts
		metadata["part_count"] = len(parts)
	}

	if err := o.deps.ArtifactRepo.UpdateContent(artifact.ID, text, metadata); err != nil {
		return fmt.Errorf("failed to store generated content: %w", err)
	}

	artifact.Content = text
	artifact.Metadata = metadata
	outcome.TriggerData.ContentPreview = content.Truncate(text, previewLength)

	return nil
}

func (o *Orchestrator) generateImage(ctx context.Context, a *database.Automation, artifact *database.Artifact, item *feed.Item) error {
	style := cmp.Or(a.ImageStyle, defaultImageStyle)
	prompt := imagePrompt(a, artifact, item, style)

	mediaURL, err := o.deps.Imager.Generate(ctx, prompt, style)
	if err != nil {
		return err
	}

	if err := o.deps.ArtifactRepo.PrependMediaURL(artifact.ID, mediaURL); err != nil {
		return fmt.Errorf("failed to store generated image: %w", err)
	}

	artifact.MediaURLs = append([]string{mediaURL}, artifact.MediaURLs...)
	return nil
}

// publish attempts delivery for an artifact. A missing credential is a
// silent skip; a service failure marks the artifact but never fails the
// run. Only infrastructure errors (credential lookup, artifact update)
// propagate.
func (o *Orchestrator) publish(ctx context.Context, a *database.Automation, artifact *database.Artifact, platform string) (*PublishOutcome, error) {
	if artifact.Content == "" {
		return &PublishOutcome{SkippedReason: "no generated content"}, nil
	}
	if platform == "" {
		return &PublishOutcome{SkippedReason: "no target platform"}, nil
	}

	credential, err := o.deps.CredentialRepo.Get(a.WorkspaceID, a.ClientID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to look up publishing credential: %w", err)
	}
	if credential == nil {
		slog.Debug("No publishing credential, skipping publish", "automation", a.ID, "platform", platform)
		return &PublishOutcome{SkippedReason: "no publishing credential"}, nil
	}

	result, publishErr := o.deps.Publisher.Publish(ctx, clients.PublishRequest{
		Platform:    platform,
		AccessToken: credential.AccessToken,
		Text:        artifact.Content,
		MediaURLs:   artifact.MediaURLs,
	})

	// A confirmed publish requires the explicit success flag AND an
	// external identifier; anything else is a failure, including an
	// HTTP-level success with an ambiguous body.
	if publishErr == nil && result.Success && result.ExternalID != "" {
		publishedAt := o.now()
		if err := o.deps.ArtifactRepo.SetPublishResult(artifact.ID, database.PublishStatusPublished, result.ExternalID, "", &publishedAt); err != nil {
			return nil, fmt.Errorf("failed to store publish result: %w", err)
		}
		return &PublishOutcome{Attempted: true, Published: true, ExternalID: result.ExternalID}, nil
	}

	reason := publishFailureReason(result, publishErr)
	if err := o.deps.ArtifactRepo.SetPublishResult(artifact.ID, database.PublishStatusFailed, "", reason, nil); err != nil {
		return nil, fmt.Errorf("failed to store publish result: %w", err)
	}

	slog.Warn("Publish failed", "automation", a.ID, "platform", platform, "reason", reason)
	return &PublishOutcome{Attempted: true, Error: reason}, nil
}

func (o *Orchestrator) notify(a *database.Automation, run *database.Run, artifact *database.Artifact, summary string) error {
	// Absent a creator, the workspace owner is addressed through the
	// workspace identity.
	recipient := cmp.Or(a.CreatedBy, a.WorkspaceID)

	return o.deps.NotificationRepo.Create(&database.Notification{
		ID:      uuid.NewString(),
		UserID:  recipient,
		Title:   "Automation fired: " + a.Name,
		Message: summary,
		Refs: map[string]string{
			"automation_id": a.ID,
			"run_id":        run.ID,
			"artifact_id":   artifact.ID,
		},
	})
}

// recordSkip writes a terminal skipped run directly; no dangling running
// row is ever created for a negative decision.
func (o *Orchestrator) recordSkip(a *database.Automation, now time.Time, reason string, result RunResult) RunResult {
	run := &database.Run{
		ID:           uuid.NewString(),
		AutomationID: a.ID,
		WorkspaceID:  a.WorkspaceID,
		Status:       database.RunStatusSkipped,
		StartedAt:    now,
		CompletedAt:  &now,
		Result:       skipReasonPrefix + reason,
	}
	if err := o.deps.RunRepo.CreateFinalized(run); err != nil {
		slog.Error("Failed to record skipped run", "automation", a.ID, "error", err)
	} else {
		result.RunID = run.ID
	}

	result.Status = database.RunStatusSkipped
	result.Reason = reason
	return result
}

func (o *Orchestrator) recordFailedDecision(a *database.Automation, now time.Time, cause error, result RunResult) RunResult {
	run := &database.Run{
		ID:           uuid.NewString(),
		AutomationID: a.ID,
		WorkspaceID:  a.WorkspaceID,
		Status:       database.RunStatusFailed,
		StartedAt:    now,
		CompletedAt:  &now,
		Error:        cause.Error(),
	}
	if err := o.deps.RunRepo.CreateFinalized(run); err != nil {
		slog.Error("Failed to record failed run", "automation", a.ID, "error", err)
	} else {
		result.RunID = run.ID
	}

	result.Status = database.RunStatusFailed
	result.Error = cause.Error()
	return result
}

func publishFailureReason(result clients.PublishResult, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case result.Error != "":
		return result.Error
	case result.Success && result.ExternalID == "":
		return "publish service confirmed success without an external id"
	default:
		return "publish service did not confirm success"
	}
}

func artifactTitle(a *database.Automation, item *feed.Item, now time.Time) string {
	if item != nil && item.Title != "" {
		return item.Title
	}
	return fmt.Sprintf("%s %s", a.Name, now.Format("2006-01-02"))
}

func imagePrompt(a *database.Automation, artifact *database.Artifact, item *feed.Item, style string) string {
	base := strings.TrimSpace(a.ImageTemplate)
	if base == "" {
		base = "Create a social media visual to accompany: {{title}}"
	}

	title := artifact.Title
	description := ""
	link := ""
	if item != nil {
		description = item.Description
		link = item.Link
	}

	replacer := strings.NewReplacer(
		"{{title}}", title,
		"{{description}}", description,
		"{{link}}", link,
	)
	prompt := replacer.Replace(base)

	if modifier, ok := styleModifiers[style]; ok {
		prompt = prompt + " Style: " + modifier
	}

	return prompt
}

// styleModifiers is a small closed set; unknown styles pass through with no
// modifier.
var styleModifiers = map[string]string{
	"photo":        "photorealistic, natural light, shallow depth of field.",
	"illustration": "flat vector illustration, clean shapes, limited palette.",
	"minimal":      "minimalist composition, generous negative space.",
	"bold":         "high contrast, bold colors, large typographic accents.",
}
