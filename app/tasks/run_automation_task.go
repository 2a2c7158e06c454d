package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/postwave/postwave/app/database"
	"github.com/postwave/postwave/app/engine"
)

// RunAutomationTask evaluates and executes a single automation. Retrying is
// intentionally disabled: every outcome, including failure, is already a
// terminal run record, and a retry would double-fire the trigger.
type RunAutomationTask struct {
	Task
	Automation *database.Automation
	runner     AutomationRunner
}

func NewRunAutomationTask(automation *database.Automation, runner AutomationRunner) *RunAutomationTask {
	task := NewTask(TaskTypeRunAutomation, automation.Name)
	task.MaxRetries = 0

	return &RunAutomationTask{
		Task:       task,
		Automation: automation,
		runner:     runner,
	}
}

func (t *RunAutomationTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result := t.runner.RunOne(ctx, t.Automation, engine.Options{})

	if result.Status == database.RunStatusFailed {
		return fmt.Errorf("automation run failed: %s", result.Error)
	}

	slog.Info("Task completed",
		"type", "RunAutomation",
		"automation", t.Automation.ID,
		"duration", t.GetDuration(),
		"status", string(result.Status),
		"fired", result.Fired)

	return nil
}
