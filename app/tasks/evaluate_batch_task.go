package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/postwave/postwave/app/database"
)

// EvaluateBatchTask fans out one RunAutomationTask per active automation.
// The orchestrator's per-automation lease keeps overlapping batches from
// double-firing the same automation.
type EvaluateBatchTask struct {
	Task
	automationRepo database.AutomationRepository
	runner         AutomationRunner
	scheduler      TaskSchedulerInterface
}

func NewEvaluateBatchTask(automationRepo database.AutomationRepository, runner AutomationRunner, scheduler TaskSchedulerInterface) *EvaluateBatchTask {
	return &EvaluateBatchTask{
		Task:           NewTask(TaskTypeEvaluateBatch, "batch"),
		automationRepo: automationRepo,
		runner:         runner,
		scheduler:      scheduler,
	}
}

func (t *EvaluateBatchTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	automations, err := t.automationRepo.ListActive()
	if err != nil {
		return fmt.Errorf("failed to load active automations: %w", err)
	}

	if len(automations) == 0 {
		slog.Debug("No active automations found")
		return nil
	}

	enqueued := 0
	for i := range automations {
		runTask := NewRunAutomationTask(&automations[i], t.runner)
		if err := t.scheduler.EnqueueTask(runTask); err != nil {
			slog.Warn("Failed to enqueue RunAutomationTask", "automation", automations[i].ID, "error", err)
			continue
		}
		enqueued++
	}

	slog.Info("Task completed",
		"type", "EvaluateBatch",
		"duration", t.GetDuration(),
		"active", len(automations),
		"enqueued", enqueued)

	return nil
}
