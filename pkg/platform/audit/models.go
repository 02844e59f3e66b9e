package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and downstream routing.
type EventCategory string

const (
	// CategoryFinancial covers events that move or commit funds. These feed
	// reconciliation and require long retention.
	CategoryFinancial EventCategory = "financial"

	// CategoryOperations covers lifecycle events useful for operational
	// visibility: platform setup, pause/resume, goal transitions.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key engine actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Actor is the identity that invoked the operation.
	Actor string `json:"actor,omitempty"`
	// CampaignID is the decimal campaign id, empty for platform-level events.
	CampaignID     string `json:"campaign_id,omitempty"`
	Amount         uint64 `json:"amount,omitempty"`
	MatchingAmount uint64 `json:"matching_amount,omitempty"`
	Fee            uint64 `json:"fee,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// AuditEvent names an engine action.
type AuditEvent string

const (
	EventPlatformInitialized AuditEvent = "platform_initialized"
	EventCampaignCreated     AuditEvent = "campaign_created"
	EventDonationMade        AuditEvent = "donation_made"
	EventGoalReached         AuditEvent = "goal_reached"
	EventMatchingFundsAdded  AuditEvent = "matching_funds_added"
	EventFundsWithdrawn      AuditEvent = "funds_withdrawn"
	EventCampaignPaused      AuditEvent = "campaign_paused"
	EventCampaignResumed     AuditEvent = "campaign_resumed"
)

// eventCategories is the source of truth for action classification.
var eventCategories = map[AuditEvent]EventCategory{
	EventPlatformInitialized: CategoryOperations,
	EventCampaignCreated:     CategoryFinancial,
	EventDonationMade:        CategoryFinancial,
	EventGoalReached:         CategoryOperations,
	EventMatchingFundsAdded:  CategoryFinancial,
	EventFundsWithdrawn:      CategoryFinancial,
	EventCampaignPaused:      CategoryOperations,
	EventCampaignResumed:     CategoryOperations,
}

// Category returns the category for an action, defaulting to operations for
// unknown actions.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events. The engine appends inside the operation's
// transaction so the event commits or aborts with the state change.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher delivers committed events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, event PendingEvent) error
}

// PendingEvent is an outbox row awaiting publication.
type PendingEvent struct {
	ID      string
	Event   Event
	Payload []byte
}

// Outbox is a Store whose rows can be drained by the worker.
type Outbox interface {
	Store
	FetchPending(ctx context.Context, limit int) ([]PendingEvent, error)
	MarkPublished(ctx context.Context, ids []string) error
}
