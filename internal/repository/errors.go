// Package repository holds the MySQL data access layer. Sentinel errors
// below are shared across repositories so handlers and services can tell
// failure scenarios apart with errors.Is.
package repository

import "errors"

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation would break an invariant that
// is not a unique key, such as deleting the last admin.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert hits a unique key.
var ErrDuplicate = errors.New("duplicate")

// ErrNationalIDExists is the members.national_id flavour of ErrDuplicate.
var ErrNationalIDExists = errors.New("national id already registered")

// ErrEmailExists is the admins.email flavour of ErrDuplicate.
var ErrEmailExists = errors.New("email already exists")

// ErrNoChange is returned by partial updates with nothing to set.
var ErrNoChange = errors.New("no fields to update")
