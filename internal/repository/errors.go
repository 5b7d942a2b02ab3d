// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as the session service to distinguish between different
// failure scenarios without inspecting SQL errors. ErrStateChanged
// in particular is how a lost conditional write surfaces: the
// booking's status no longer matched the state the caller's
// decision was based on.
package repository

import "errors"

// ErrBookingNotFound is returned when no booking matches the given
// code or id within the tenant. The session layer reports the same
// message for unknown and unauthorized lookups to avoid code
// enumeration.
var ErrBookingNotFound = errors.New("booking not found")

// ErrPropertyNotFound is returned when a property id does not exist.
var ErrPropertyNotFound = errors.New("property not found")

// ErrTenantNotFound is returned when a request host or slug maps to
// no known tenant.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrEmailExists is returned when an account upgrade collides with
// an existing user email.
var ErrEmailExists = errors.New("email already exists")

// ErrStateChanged is returned when a conditional write matched zero
// rows: a concurrent request changed the booking between the read
// and the write. Callers should re-read and retry, never overwrite.
var ErrStateChanged = errors.New("booking state changed concurrently")
