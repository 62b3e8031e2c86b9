package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is an append-only record of a ledger mutation.
type AuditLog struct {
	ID           string
	ActorID      string // operator subject, or "system" for background jobs
	Action       AuditAction
	ResourceType string
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is free-form state captured in audit rows.
type JSON map[string]any

// AuditAction names an auditable operation.
type AuditAction string

const (
	AuditActionAccountCreate  AuditAction = "account.create"
	AuditActionAccountDeposit AuditAction = "account.deposit"

	AuditActionFreezeCreate AuditAction = "freeze.create"
	AuditActionFreezeCommit AuditAction = "freeze.commit"
	AuditActionFreezeRefund AuditAction = "freeze.refund"
)

// AuditStatus is the result of an audited action.
type AuditStatus string

const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusFailure  AuditStatus = "failure"
	AuditStatusConflict AuditStatus = "conflict"
)

// SystemActor is recorded when no operator initiated the change.
const SystemActor = "system"

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter narrows audit queries.
type AuditFilter struct {
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
