package api

import (
	"context"

	"github.com/postwave/postwave/app/compose"
	"github.com/postwave/postwave/app/database"
	"github.com/postwave/postwave/app/engine"
)

// EngineInterface covers the orchestrator operations the HTTP layer needs.
type EngineInterface interface {
	RunOne(ctx context.Context, a *database.Automation, opts engine.Options) engine.RunResult
	ProcessBatch(ctx context.Context) engine.BatchResult
}

var _ EngineInterface = (*engine.Orchestrator)(nil)

type Handler struct {
	automationRepo   database.AutomationRepository
	runRepo          database.RunRepository
	credentialRepo   database.CredentialRepository
	notificationRepo database.NotificationRepository
	engine           EngineInterface
	profileCache     *compose.ProfileCache
}
