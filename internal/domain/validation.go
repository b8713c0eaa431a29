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
	ErrInvalidHandle  = errors.New("invalid account handle")
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MinHandleLength   = 2
	MaxHandleLength   = 64
	MaxTransferAmount = "1000000000000" // 1 trillion

	MaxDescriptionLength = 255
)

var handleRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// NormalizeHandle strips surrounding whitespace. The normalized form is
// what gets validated, stored, and looked up.
func NormalizeHandle(handle string) string {
	return strings.TrimSpace(handle)
}

// ValidateHandle validates a human-chosen account handle. Callers are
// expected to normalize first; surrounding whitespace is rejected here.
func ValidateHandle(handle string) error {
	if len(handle) < MinHandleLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidHandle, MinHandleLength)
	}

	if len(handle) > MaxHandleLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidHandle, MaxHandleLength)
	}

	if !handleRegex.MatchString(handle) {
		return fmt.Errorf("%w: only letters, digits, '.', '_' and '-' allowed", ErrInvalidHandle)
	}

	return nil
}

// ValidateAmount validates a transfer or credit amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// TruncateDescription clamps free-text descriptions to the stored limit.
// The limit counts runes, never splitting a multibyte character.
func TruncateDescription(description string) string {
	if len(description) <= MaxDescriptionLength {
		return description
	}

	runes := []rune(description)
	if len(runes) <= MaxDescriptionLength {
		return description
	}

	return string(runes[:MaxDescriptionLength])
}
