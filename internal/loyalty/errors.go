package loyalty

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the loyalty engine wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not found")
	ErrIneligible              = errors.New("not eligible for reward")
	ErrRedemptionLimitExceeded = errors.New("redemption limit exceeded")
	ErrExpired                 = errors.New("reward redemption window expired")
	ErrConflict                = errors.New("concurrent update conflict")
)

// Error is a typed loyalty failure.
type Error struct {
	Kind    error
	Message string
	// VisitsRemaining is set for ErrIneligible so the UI can show how many visits are missing.
	VisitsRemaining int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed input.
func ValidationError(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

// NotFoundError reports an unknown client, barber, reward or service.
func NotFoundError(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

// ConflictError reports a lost optimistic-concurrency race. Safe to retry once.
func ConflictError(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

// IneligibleError reports insufficient progress.
func IneligibleError(remaining int, format string, args ...interface{}) error {
	e := newError(ErrIneligible, format, args...)
	e.VisitsRemaining = remaining
	return e
}

// IsRetryable reports whether err may be retried with fresh state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
