package domain

import "time"

// Event types
const (
	EventTypeAccountCreated   = "account.created"
	EventTypeAccountDeposited = "account.deposited"
	EventTypeFreezeCreated    = "freeze.created"
	EventTypeFreezeCommitted  = "freeze.committed"
	EventTypeFreezeRefunded   = "freeze.refunded"
	EventTypeFreezeConflict   = "freeze.conflict"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
	AggregateTypeFreeze  = "freeze"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// FreezeEventPayload builds the payload shared by freeze.* events.
func FreezeEventPayload(f *Freeze) map[string]any {
	p := map[string]any{
		"freeze_id":   f.ID,
		"account_id":  f.AccountID,
		"amount":      f.Amount.String(),
		"purpose_ref": f.PurposeRef,
		"kind":        string(f.Kind),
		"state":       string(f.State),
	}
	if f.ResolutionReason != "" {
		p["reason"] = string(f.ResolutionReason)
	}
	return p
}

// NewFreezeEvent wraps a freeze transition into an outbox event.
func NewFreezeEvent(id, eventType string, f *Freeze, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   f.ID,
		AggregateType: AggregateTypeFreeze,
		EventType:     eventType,
		Payload:       FreezeEventPayload(f),
		CreatedAt:     at,
	}
}
