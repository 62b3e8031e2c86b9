package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FreezeState is the lifecycle state of a freeze.
type FreezeState string

const (
	FreezeStatePending   FreezeState = "PENDING"
	FreezeStateCommitted FreezeState = "COMMITTED"
	FreezeStateRefunded  FreezeState = "REFUNDED"
)

// IsTerminal reports whether no further transition is allowed.
func (s FreezeState) IsTerminal() bool {
	return s == FreezeStateCommitted || s == FreezeStateRefunded
}

// OperationKind tells what business operation a freeze backs.
type OperationKind string

const (
	OperationKindActivation OperationKind = "activation"
	OperationKindRental     OperationKind = "rental"
)

// Outcome is the requested resolution of a freeze.
type Outcome string

const (
	OutcomeCommit Outcome = "commit"
	OutcomeRefund Outcome = "refund"
)

// ParseOutcome validates an outcome string.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeCommit, OutcomeRefund:
		return Outcome(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
}

// TargetState returns the terminal state the outcome leads to.
func (o Outcome) TargetState() FreezeState {
	if o == OutcomeCommit {
		return FreezeStateCommitted
	}
	return FreezeStateRefunded
}

// ResolutionReason records why a freeze left PENDING.
type ResolutionReason string

const (
	ReasonProviderSuccess ResolutionReason = "provider_success"
	ReasonProviderFailure ResolutionReason = "provider_failure"
	ReasonCallback        ResolutionReason = "callback"
	ReasonExpired         ResolutionReason = "expired"
	ReasonManual          ResolutionReason = "manual"
)

// Freeze is funds earmarked for one pending purchase or rental.
type Freeze struct {
	ID               string
	AccountID        string
	Amount           decimal.Decimal
	PurposeRef       string
	Kind             OperationKind
	State            FreezeState
	ResolutionReason ResolutionReason
	ExpiresAt        time.Time
	CreatedAt        time.Time
	ResolvedAt       *time.Time
}

// Validate checks creation-time fields.
func (f *Freeze) Validate() error {
	if f.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return ValidatePurposeRef(f.PurposeRef)
}

// IsExpired reports whether the backing operation's deadline has passed.
func (f *Freeze) IsExpired(now time.Time) bool {
	return f.State == FreezeStatePending && !f.ExpiresAt.After(now)
}

// Transition checks the move to target.
// It returns applied=false with a nil error when the freeze already sits in
// target, and ErrConflictingResolution when it sits in the opposite terminal state.
func (f *Freeze) Transition(target FreezeState) (bool, error) {
	if !target.IsTerminal() {
		return false, fmt.Errorf("%w: cannot move to %s", ErrInvalidOutcome, target)
	}

	switch f.State {
	case FreezeStatePending:
		return true, nil
	case target:
		return false, nil
	default:
		return false, &ConflictError{
			FreezeID:  f.ID,
			Current:   f.State,
			Requested: target,
		}
	}
}

// ConflictError carries details about a terminal-state mismatch.
type ConflictError struct {
	FreezeID  string
	Current   FreezeState
	Requested FreezeState
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: freeze %s is %s, requested %s",
		ErrConflictingResolution.Error(), e.FreezeID, e.Current, e.Requested)
}

// Unwrap lets errors.Is match ErrConflictingResolution.
func (e *ConflictError) Unwrap() error {
	return ErrConflictingResolution
}

// Clone returns a copy safe to mutate.
func (f *Freeze) Clone() *Freeze {
	c := *f
	if f.ResolvedAt != nil {
		t := *f.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
