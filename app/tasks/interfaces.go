package tasks

import (
	"context"

	"github.com/postwave/postwave/app/database"
	"github.com/postwave/postwave/app/engine"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background task processing.
// Example usage:
//
//	scheduler := NewScheduler(orchestrator, automationRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// AutomationRunner executes one automation end to end.
type AutomationRunner interface {
	RunOne(ctx context.Context, a *database.Automation, opts engine.Options) engine.RunResult
}

var _ AutomationRunner = (*engine.Orchestrator)(nil)
