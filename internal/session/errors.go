package session

import (
	"errors"
	"fmt"

	"github.com/iliyamo/stay-reservation/internal/lifecycle"
)

// The session service is the only layer that turns internal
// failures into guest-facing error classes. Handlers map these onto
// HTTP statuses; nothing below this package produces end-user text.

// ErrSessionInvalid covers every authentication failure: missing,
// malformed, tampered or expired tokens. The message is generic on
// purpose and never says which check failed.
var ErrSessionInvalid = errors.New("session invalid or expired")

// ErrNotFound covers unknown booking codes and ids. It is
// deliberately indistinguishable from "exists but not yours" so
// codes cannot be enumerated.
var ErrNotFound = errors.New("booking not found")

// ValidationError reports malformed guest input (bad dates,
// non-positive guest count). Its message is safe to show verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// StateConflictError reports an illegal transition or a lost
// conditional write. The current status is included so the guest
// understands why the action was refused.
type StateConflictError struct {
	Action  lifecycle.Action
	Current lifecycle.Status
	Reason  string
}

func (e *StateConflictError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("action %s is not allowed while booking is %s", e.Action, e.Current)
}

// UpstreamError wraps store or crypto failures. It is logged
// internally; guests only ever see a generic message.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }
