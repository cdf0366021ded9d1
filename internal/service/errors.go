// Package service composes validation, the customer store, the password
// hasher and the token service into the auth flows and the customer
// management operations.  It decides outcomes; the handler layer only maps
// them onto HTTP.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service outcome for the transport layer.
type Kind int

// Outcome kinds.  The zero value is Unexpected so an unclassified error
// never maps to a client error by accident.
const (
	KindUnexpected Kind = iota
	KindValidation
	KindInvalidID
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindInvalidID:
		return "invalid_identifier"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	}
	return "unexpected"
}

// Error is an expected failure with a client-safe message.  Details holds
// the full list of validation messages for KindValidation.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error // underlying cause, for logs only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, KindUnexpected when err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}

// Client-facing messages shared by several flows.
const (
	MsgValidationFailed     = "Validation failed"
	MsgInvalidCredentials   = "Invalid username or password"
	MsgRefreshTokenRequired = "Refresh token required"
	MsgInvalidRefreshToken  = "Invalid or expired refresh token"
	MsgInvalidCustomerID    = "Invalid customer ID"
	MsgCustomerNotFound     = "Customer not found"
	MsgUserNotFound         = "User not found"
	MsgUsernameExists       = "Username already exists"
	MsgEmailExists          = "Email already exists"
	MsgCustomerExists       = "Username or email already exists"
)

func validationError(details []string) *Error {
	return &Error{Kind: KindValidation, Message: MsgValidationFailed, Details: details}
}

func conflictError(field string, cause error) *Error {
	msg := MsgCustomerExists
	switch field {
	case "username":
		msg = MsgUsernameExists
	case "email":
		msg = MsgEmailExists
	}
	return &Error{Kind: KindConflict, Message: msg, Err: cause}
}
