package automation

import (
	"testing"
)

func TestParseTrigger_Schedule(t *testing.T) {
	raw := []byte(`{"cadence": "weekly", "time": "09:00", "days": [1, 3, 5]}`)

	trigger, err := ParseTrigger("schedule", raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	schedule, ok := trigger.(ScheduleTrigger)
	if !ok {
		t.Fatalf("Expected ScheduleTrigger, got %T", trigger)
	}
	if schedule.Cadence != CadenceWeekly {
		t.Errorf("Expected weekly cadence, got %q", schedule.Cadence)
	}
	if schedule.Time != "09:00" {
		t.Errorf("Expected time 09:00, got %q", schedule.Time)
	}
	if len(schedule.Days) != 3 {
		t.Errorf("Expected 3 days, got %d", len(schedule.Days))
	}
}

func TestParseTrigger_ScheduleMissingCadence(t *testing.T) {
	if _, err := ParseTrigger("schedule", []byte(`{"time": "09:00"}`)); err == nil {
		t.Error("Expected error for schedule trigger without cadence")
	}
}

func TestParseTrigger_ScheduleInvalidTime(t *testing.T) {
	if _, err := ParseTrigger("schedule", []byte(`{"cadence": "daily", "time": "25:99"}`)); err == nil {
		t.Error("Expected error for unparseable schedule time")
	}
}

func TestParseTrigger_Feed(t *testing.T) {
	raw := []byte(`{"url": "https://example.com/rss", "last_seen_guid": "abc"}`)

	trigger, err := ParseTrigger("feed", raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	feedTrigger, ok := trigger.(FeedTrigger)
	if !ok {
		t.Fatalf("Expected FeedTrigger, got %T", trigger)
	}
	if feedTrigger.URL != "https://example.com/rss" {
		t.Errorf("Unexpected url: %q", feedTrigger.URL)
	}
	if feedTrigger.LastSeenGUID != "abc" {
		t.Errorf("Unexpected last seen guid: %q", feedTrigger.LastSeenGUID)
	}
}

func TestParseTrigger_FeedMissingURL(t *testing.T) {
	if _, err := ParseTrigger("feed", []byte(`{}`)); err == nil {
		t.Error("Expected error for feed trigger without url")
	}
}

func TestParseTrigger_Webhook(t *testing.T) {
	trigger, err := ParseTrigger("webhook", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, ok := trigger.(WebhookTrigger); !ok {
		t.Fatalf("Expected WebhookTrigger, got %T", trigger)
	}
}

func TestParseTrigger_UnknownType(t *testing.T) {
	if _, err := ParseTrigger("cron", []byte(`{}`)); err == nil {
		t.Error("Expected error for unknown trigger type")
	}
}

func TestParseTrigger_EmptyConfigDefaultsToEmptyObject(t *testing.T) {
	if _, err := ParseTrigger("webhook", []byte{}); err != nil {
		t.Errorf("Expected empty config to be tolerated, got: %v", err)
	}
}
