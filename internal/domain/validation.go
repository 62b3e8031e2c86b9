package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidPurposeRef = errors.New("invalid purpose reference")
	ErrInvalidAccountID  = errors.New("invalid account ID")
	ErrAmountTooLarge    = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall    = errors.New("amount below minimum allowed")
	ErrInvalidKind       = errors.New("invalid operation kind")
)

// Validation constants
const (
	MaxPurposeRefLength = 128
	MaxAccountIDLength  = 64
	MaxFreezeAmount     = "1000000" // one purchase never exceeds this
	MinFreezeAmount     = "0.01"
	// MoneyScale matches the NUMERIC(20,4) money columns.
	MoneyScale = 4
)

// purpose refs look like "activation:8812" or "rental:3f9a-77"
var purposeRefRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.:\-/]*$`)

var accountIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// ValidatePurposeRef validates the idempotency key of a freeze.
func ValidatePurposeRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidPurposeRef)
	}

	if len(ref) > MaxPurposeRefLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidPurposeRef, MaxPurposeRefLength)
	}

	if !purposeRefRegex.MatchString(ref) {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidPurposeRef)
	}

	return nil
}

// ValidateAccountID validates an externally supplied account identifier.
func ValidateAccountID(id string) error {
	if id == "" || len(id) > MaxAccountIDLength || !accountIDRegex.MatchString(id) {
		return ErrInvalidAccountID
	}
	return nil
}

// ValidateAmount validates a freeze or deposit amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MoneyScale)
	}

	minAmount, _ := decimal.NewFromString(MinFreezeAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinFreezeAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxFreezeAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxFreezeAmount)
	}

	return nil
}

// ValidateKind validates the operation kind; empty means activation.
func ValidateKind(kind OperationKind) (OperationKind, error) {
	switch kind {
	case "":
		return OperationKindActivation, nil
	case OperationKindActivation, OperationKindRental:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
