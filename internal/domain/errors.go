package domain

import (
	"errors"
	"fmt"
)

// Business-rule errors are expected, recoverable conditions and are surfaced
// verbatim to the caller. Storage and ledger failures are wrapped with context
// and reported to the caller as a generic failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfTrade         = errors.New("cannot trade with your own shop")
	ErrBlacklisted       = errors.New("item is blacklisted")
	ErrValidation        = errors.New("invalid input")
	ErrLedger            = errors.New("ledger rejected the transfer")
)

// Validation wraps ErrValidation with a caller-facing reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsBusiness reports whether err belongs to the recoverable taxonomy above.
func IsBusiness(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInsufficientStock, ErrInsufficientFunds,
		ErrSelfTrade, ErrBlacklisted, ErrValidation, ErrLedger,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
