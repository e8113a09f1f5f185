package domain

import (
	"errors"
	"fmt"
)

// Kind classifies account lifecycle failures. Handlers and clients branch
// on the kind, never on provider-specific error strings.
type Kind string

const (
	KindInvalidInput            Kind = "INVALID_INPUT"
	KindEmailAlreadyRegistered  Kind = "EMAIL_ALREADY_REGISTERED"
	KindEmailNotVerified        Kind = "EMAIL_NOT_VERIFIED"
	KindAccountDisabled         Kind = "ACCOUNT_DISABLED"
	KindRequiresRecentLogin     Kind = "REQUIRES_RECENT_LOGIN"
	KindWrongPassword           Kind = "WRONG_PASSWORD"
	KindTooManyRequests         Kind = "TOO_MANY_REQUESTS"
	KindNetworkError            Kind = "NETWORK_ERROR"
	KindAccountExistsWithOther  Kind = "ACCOUNT_EXISTS_WITH_DIFFERENT_CREDENTIAL"
	KindNotVerifiedYet          Kind = "NOT_VERIFIED_YET"
	KindUnknown                 Kind = "UNKNOWN"
)

// Error is a typed account failure. Field is set for validation errors so
// the UI can attach the message to the right input.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// FieldError builds a validation failure tied to a named input field.
func FieldError(field, message string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: message}
}

// KindOf extracts the Kind from err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
