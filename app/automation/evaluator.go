package automation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/postwave/postwave/app/feed"
)

// Decision is the outcome of one trigger evaluation. When Fire is false,
// Reason names the silent-skip branch that was taken.
type Decision struct {
	Fire      bool
	Reason    string
	FreshItem *feed.Item
	DedupeKey string
}

// FeedSource supplies feed items for feed trigger evaluation.
type FeedSource interface {
	Run(ctx context.Context, url string) []feed.Item
}

var _ FeedSource = (*feed.Fetcher)(nil)

type Evaluator struct {
	source FeedSource
}

func NewEvaluator(source FeedSource) *Evaluator {
	return &Evaluator{source: source}
}

// Run decides whether an automation should fire right now. Evaluation has
// no side effects; bookkeeping is written by the orchestrator only after a
// successful fire.
func (e *Evaluator) Run(ctx context.Context, trigger Trigger, lastTriggeredAt *time.Time, now time.Time) Decision {
	switch t := trigger.(type) {
	case ScheduleTrigger:
		return evaluateSchedule(t, lastTriggeredAt, now)
	case FeedTrigger:
		return e.evaluateFeed(ctx, t)
	case WebhookTrigger:
		return Decision{Reason: "webhook triggers fire only from inbound deliveries"}
	default:
		return Decision{Reason: fmt.Sprintf("unknown trigger type %T", trigger)}
	}
}

func evaluateSchedule(trigger ScheduleTrigger, lastTriggeredAt *time.Time, now time.Time) Decision {
	// Single idempotency guard for time-based triggers: never fire twice
	// on the same calendar day.
	if lastTriggeredAt != nil && sameCalendarDay(*lastTriggeredAt, now) {
		return Decision{Reason: "already fired today"}
	}

	if trigger.Time != "" {
		configured, err := time.Parse("15:04", trigger.Time)
		if err != nil {
			return Decision{Reason: fmt.Sprintf("invalid schedule time %q", trigger.Time)}
		}
		local := now.In(time.Local)
		nowMinutes := local.Hour()*60 + local.Minute()
		configuredMinutes := configured.Hour()*60 + configured.Minute()
		if nowMinutes < configuredMinutes {
			return Decision{Reason: "scheduled time not reached"}
		}
	}

	switch trigger.Cadence {
	case CadenceDaily:
		// Day selectors are ignored for the daily cadence.
		return Decision{Fire: true}
	case CadenceWeekly:
		if slices.Contains(trigger.Days, int(now.In(time.Local).Weekday())) {
			return Decision{Fire: true}
		}
		return Decision{Reason: "weekday not in configured set"}
	case CadenceMonthly:
		if slices.Contains(trigger.Days, now.In(time.Local).Day()) {
			return Decision{Fire: true}
		}
		return Decision{Reason: "day of month not in configured set"}
	default:
		return Decision{Reason: fmt.Sprintf("unrecognized cadence %q", trigger.Cadence)}
	}
}

func (e *Evaluator) evaluateFeed(ctx context.Context, trigger FeedTrigger) Decision {
	items := e.source.Run(ctx, trigger.URL)
	if len(items) == 0 {
		return Decision{Reason: "no feed items"}
	}

	// Items arrive newest-first from the adapter.
	newest := items[0]
	if newest.GUID == trigger.LastSeenGUID {
		return Decision{Reason: "newest feed item already seen"}
	}

	return Decision{
		Fire:      true,
		FreshItem: &newest,
		DedupeKey: newest.GUID,
	}
}

func sameCalendarDay(a, b time.Time) bool {
	al, bl := a.In(time.Local), b.In(time.Local)
	return al.Year() == bl.Year() && al.Month() == bl.Month() && al.Day() == bl.Day()
}
