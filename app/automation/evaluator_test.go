package automation

import (
	"context"
	"testing"
	"time"

	"github.com/postwave/postwave/app/feed"
)

type stubFeedSource struct {
	items []feed.Item
}

func (s *stubFeedSource) Run(ctx context.Context, url string) []feed.Item {
	return s.items
}

func TestEvaluateSchedule_DailyFiresAfterConfiguredTime(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	trigger := ScheduleTrigger{Cadence: CadenceDaily, Time: "09:00"}

	now := time.Date(2025, 6, 2, 14, 0, 0, 0, time.Local)

	decision := evaluator.Run(context.Background(), trigger, nil, now)
	if !decision.Fire {
		t.Errorf("Expected fire after configured time, got skip: %s", decision.Reason)
	}
}

func TestEvaluateSchedule_DailyWaitsForConfiguredTime(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	trigger := ScheduleTrigger{Cadence: CadenceDaily, Time: "09:00"}

	now := time.Date(2025, 6, 2, 8, 59, 0, 0, time.Local)

	decision := evaluator.Run(context.Background(), trigger, nil, now)
	if decision.Fire {
		t.Error("Expected skip before configured time")
	}
	if decision.Reason != "scheduled time not reached" {
		t.Errorf("Unexpected skip reason: %q", decision.Reason)
	}
}

func TestEvaluateSchedule_FiresAtExactMinute(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	trigger := ScheduleTrigger{Cadence: CadenceDaily, Time: "09:00"}

	now := time.Date(2025, 6, 2, 9, 0, 30, 0, time.Local)

	decision := evaluator.Run(context.Background(), trigger, nil, now)
	if !decision.Fire {
		t.Errorf("Expected fire at the configured minute, got skip: %s", decision.Reason)
	}
}

func TestEvaluateSchedule_AlreadyFiredToday(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	trigger := ScheduleTrigger{Cadence: CadenceDaily, Time: "09:00"}

	fired := time.Date(2025, 6, 2, 9, 1, 0, 0, time.Local)
	now := time.Date(2025, 6, 2, 14, 0, 0, 0, time.Local)

	decision := evaluator.Run(context.Background(), trigger, &fired, now)
	if decision.Fire {
		t.Error("Expected skip when already fired the same calendar day")
	}
	if decision.Reason != "already fired today" {
		t.Errorf("Unexpected skip reason: %q", decision.Reason)
	}
}

func TestEvaluateSchedule_FiresAgainNextDay(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	trigger := ScheduleTrigger{Cadence: CadenceDaily, Time: "09:00"}

	fired := time.Date(2025, 6, 2, 9, 1, 0, 0, time.Local)
	now := time.Date(2025, 6, 3, 9, 30, 0, 0, time.Local)

	decision := evaluator.Run(context.Background(), trigger, &fired, now)
	if !decision.Fire {
		t.Errorf("Expected fire on the following day, got skip: %s", decision.Reason)
	}
}

func TestEvaluateSchedule_WeeklyMatchesWeekday(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	// 2025-06-02 is a Monday (weekday 1)
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.Local)

	matching := ScheduleTrigger{Cadence: CadenceWeekly, Days: []int{1, 4}}
	if decision := evaluator.Run(context.Background(), matching, nil, now); !decision.Fire {
		t.Errorf("Expected fire on a configured weekday, got skip: %s", decision.Reason)
	}

	nonMatching := ScheduleTrigger{Cadence: CadenceWeekly, Days: []int{2, 4}}
	if decision := evaluator.Run(context.Background(), nonMatching, nil, now); decision.Fire {
		t.Error("Expected skip on a weekday outside the configured set")
	}
}

func TestEvaluateSchedule_MonthlyMatchesDayOfMonth(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	matching := ScheduleTrigger{Cadence: CadenceMonthly, Days: []int{1, 15}}
	if decision := evaluator.Run(context.Background(), matching, nil, now); !decision.Fire {
		t.Errorf("Expected fire on a configured day of month, got skip: %s", decision.Reason)
	}

	nonMatching := ScheduleTrigger{Cadence: CadenceMonthly, Days: []int{1}}
	if decision := evaluator.Run(context.Background(), nonMatching, nil, now); decision.Fire {
		t.Error("Expected skip on a day outside the configured set")
	}
}

func TestEvaluateSchedule_UnrecognizedCadence(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	trigger := ScheduleTrigger{Cadence: Cadence("hourly")}

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.Local)

	decision := evaluator.Run(context.Background(), trigger, nil, now)
	if decision.Fire {
		t.Error("Expected skip for unrecognized cadence")
	}
}

func TestEvaluateFeed_FiresOnUnseenNewestItem(t *testing.T) {
	source := &stubFeedSource{items: []feed.Item{
		{GUID: "guid-2", Title: "Newest"},
		{GUID: "guid-1", Title: "Older"},
	}}
	evaluator := NewEvaluator(source)
	trigger := FeedTrigger{URL: "https://example.com/rss", LastSeenGUID: "guid-1"}

	decision := evaluator.Run(context.Background(), trigger, nil, time.Now())
	if !decision.Fire {
		t.Fatalf("Expected fire on unseen newest item, got skip: %s", decision.Reason)
	}
	if decision.FreshItem == nil || decision.FreshItem.GUID != "guid-2" {
		t.Errorf("Expected newest item to be carried, got %+v", decision.FreshItem)
	}
	if decision.DedupeKey != "guid-2" {
		t.Errorf("Expected dedupe key guid-2, got %q", decision.DedupeKey)
	}
}

func TestEvaluateFeed_SkipsSeenNewestItem(t *testing.T) {
	source := &stubFeedSource{items: []feed.Item{
		{GUID: "guid-2", Title: "Newest"},
		{GUID: "guid-1", Title: "Older"},
	}}
	evaluator := NewEvaluator(source)
	trigger := FeedTrigger{URL: "https://example.com/rss", LastSeenGUID: "guid-2"}

	decision := evaluator.Run(context.Background(), trigger, nil, time.Now())
	if decision.Fire {
		t.Error("Expected skip when the newest item was already consumed")
	}
	if decision.Reason != "newest feed item already seen" {
		t.Errorf("Unexpected skip reason: %q", decision.Reason)
	}
}

func TestEvaluateFeed_SkipsEmptyFeed(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})
	trigger := FeedTrigger{URL: "https://example.com/rss"}

	decision := evaluator.Run(context.Background(), trigger, nil, time.Now())
	if decision.Fire {
		t.Error("Expected skip for empty feed")
	}
}

func TestEvaluateWebhook_NeverFiresFromPolling(t *testing.T) {
	evaluator := NewEvaluator(&stubFeedSource{})

	decision := evaluator.Run(context.Background(), WebhookTrigger{}, nil, time.Now())
	if decision.Fire {
		t.Error("Expected webhook trigger to never fire from the polling loop")
	}
}
