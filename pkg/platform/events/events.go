// Package events publishes engagement events for downstream consumers
// (dashboards, exports). Publishing is fail-open: callers log failures and
// carry on, the citizen record stays the source of truth.
package events

import (
	"context"
	"time"
)

// Type names an engagement event.
type Type string

const (
	TypeCitizenRegistered     Type = "citizen.registered"
	TypeOutreachSent          Type = "outreach.sent"
	TypeOutreachFailed        Type = "outreach.failed"
	TypeDeliveryStatusChanged Type = "delivery.status_changed"
	TypeLinkClicked           Type = "link.clicked"
	TypeSurveyAnswered        Type = "survey.answered"
)

// Event is the envelope written to the bus. CitizenID is the partition key,
// so events of one citizen stay ordered.
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	CitizenID  string            `json:"citizen_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	RequestID  string            `json:"request_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
