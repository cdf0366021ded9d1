// Package repository defines error types that are reused across the
// customer store. These sentinel values allow higher layers such as the
// services to distinguish between different failure scenarios. For
// example, ErrInvalidID means the identifier cannot exist in this store at
// all, while ErrNotFound means it is well formed but no row carries it.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no customer matches the lookup.
var ErrNotFound = errors.New("customer not found")

// ErrInvalidID is returned when an identifier is not a well-formed ULID.
// Callers should translate this into an HTTP 400 response, distinct from
// ErrNotFound.
var ErrInvalidID = errors.New("invalid customer id")

// ErrConflict is returned when a write would violate a uniqueness
// constraint. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// DuplicateError reports which identity field collided with an existing
// record. It matches ErrConflict under errors.Is.
type DuplicateError struct {
	Field string // "username" or "email"; empty when the index is unknown
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "duplicate customer"
	}
	return e.Field + " already exists"
}

// Is lets errors.Is(err, ErrConflict) match a DuplicateError.
func (e *DuplicateError) Is(target error) bool { return target == ErrConflict }

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// asDuplicate maps a unique index violation to a DuplicateError. It
// returns nil for any other error.
func asDuplicate(err error) *DuplicateError {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return nil
	}
	// Message looks like: Duplicate entry 'x' for key 'customers.uq_customers_username'
	msg := me.Message
	switch {
	case strings.Contains(msg, "uq_customers_username"):
		return &DuplicateError{Field: "username"}
	case strings.Contains(msg, "uq_customers_email"):
		return &DuplicateError{Field: "email"}
	}
	return &DuplicateError{}
}
