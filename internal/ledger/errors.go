package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("already exists")
	// ErrConflict is retryable: another writer changed the same row first.
	ErrConflict = errors.New("concurrent modification")
)

const (
	KindValidation        = "validation"
	KindNotFound          = "not_found"
	KindInsufficientStock = "insufficient_stock"
	KindDuplicate         = "duplicate"
	KindConflict          = "conflict"
	KindInternal          = "internal"
)

// Error wraps one of the sentinels above with a human readable detail.
type Error struct {
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(sentinel error, format string, args ...any) *Error {
	return &Error{Err: sentinel, Details: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

func notFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

// KindOf returns the machine readable kind of err.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
