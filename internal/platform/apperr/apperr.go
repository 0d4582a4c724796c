// Package apperr defines the closed set of error kinds the clinic core can
// return. Callers branch on the kind, never on message text. Every kind is
// recoverable by the caller; none is process-fatal.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable identifier for a failure cause.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindDuplicateEmail    Kind = "duplicate_email"
	KindUnknownPatient    Kind = "unknown_patient"
	KindUnknownDoctor     Kind = "unknown_doctor"
	KindUnknownStaff      Kind = "unknown_staff"
	KindInvalidRole       Kind = "invalid_role"
	KindIllegalTransition Kind = "illegal_transition"
	KindEmptyMedicineList Kind = "empty_medicine_list"
	KindEmptyBill         Kind = "empty_bill"
	KindAmountMismatch    Kind = "amount_mismatch"
	KindInsufficientStock Kind = "insufficient_stock"
	KindUnauthenticated   Kind = "unauthenticated"
	KindForbidden         Kind = "forbidden"
	KindInvalidArgument   Kind = "invalid_argument"
)

// Error carries a kind alongside a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
