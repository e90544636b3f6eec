// internal/util/errors.go
package util

import "errors"

// Common application-specific errors. Every one of these is a normal,
// locally-handled outcome surfaced to the caller as a structured result;
// none of them is ever panicked.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input provided")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyUsed       = errors.New("code already redeemed")
	ErrAlreadyTerminal   = errors.New("already in a terminal state")
	ErrExpired           = errors.New("expired")
	ErrUnauthorized      = errors.New("caller is not entitled to perform this transition")
	ErrSelfPay           = errors.New("sender and recipient are the same principal")
	ErrUnknownCurrency   = errors.New("unknown currency")
)

// IsError reports whether err matches target in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
