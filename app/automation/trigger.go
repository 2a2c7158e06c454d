package automation

import (
	"encoding/json"
	"fmt"
	"time"
)

type TriggerType string

const (
	TriggerTypeSchedule TriggerType = "schedule"
	TriggerTypeFeed     TriggerType = "feed"
	TriggerTypeWebhook  TriggerType = "webhook"
)

type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// Trigger is the closed set of trigger configurations. Adding a trigger
// kind means adding a concrete type here and a branch in the evaluator.
type Trigger interface {
	Type() TriggerType
}

// ScheduleTrigger fires on a time-based cadence. Days holds weekdays (0-6)
// for the weekly cadence and days of month (1-31) for the monthly cadence;
// the daily cadence ignores it.
type ScheduleTrigger struct {
	Cadence Cadence `json:"cadence"`
	Time    string  `json:"time,omitempty"` // "HH:MM"
	Days    []int   `json:"days,omitempty"`
}

func (ScheduleTrigger) Type() TriggerType { return TriggerTypeSchedule }

// FeedTrigger fires when a syndication feed produces an unseen newest item.
type FeedTrigger struct {
	URL           string     `json:"url"`
	LastSeenGUID  string     `json:"last_seen_guid,omitempty"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
}

func (FeedTrigger) Type() TriggerType { return TriggerTypeFeed }

// WebhookTrigger never fires from the polling loop; firing originates from
// an inbound delivery at a separate entry point.
type WebhookTrigger struct{}

func (WebhookTrigger) Type() TriggerType { return TriggerTypeWebhook }

// ParseTrigger decodes a persisted trigger config, enforcing that the
// config shape matches the declared trigger type.
func ParseTrigger(triggerType string, raw []byte) (Trigger, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	switch TriggerType(triggerType) {
	case TriggerTypeSchedule:
		var trigger ScheduleTrigger
		if err := json.Unmarshal(raw, &trigger); err != nil {
			return nil, fmt.Errorf("invalid schedule trigger config: %w", err)
		}
		if trigger.Cadence == "" {
			return nil, fmt.Errorf("schedule trigger requires a cadence")
		}
		if trigger.Time != "" {
			if _, err := time.Parse("15:04", trigger.Time); err != nil {
				return nil, fmt.Errorf("invalid schedule time %q: %w", trigger.Time, err)
			}
		}
		return trigger, nil

	case TriggerTypeFeed:
		var trigger FeedTrigger
		if err := json.Unmarshal(raw, &trigger); err != nil {
			return nil, fmt.Errorf("invalid feed trigger config: %w", err)
		}
		if trigger.URL == "" {
			return nil, fmt.Errorf("feed trigger requires a url")
		}
		return trigger, nil

	case TriggerTypeWebhook:
		return WebhookTrigger{}, nil

	default:
		return nil, fmt.Errorf("unknown trigger type %q", triggerType)
	}
}
