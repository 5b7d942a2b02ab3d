package lifecycle

import "fmt"

// Action is a guest-initiated operation against a booking.
type Action string

const (
	ActionCancel         Action = "cancel"
	ActionModify         Action = "modify"
	ActionRetryPayment   Action = "retry_payment"
	ActionUpgradeAccount Action = "upgrade_account"
)

// Decision records whether an action is allowed from the current
// status and, when it is not, a human-readable reason safe to show
// to the guest.
type Decision struct {
	Allowed bool
	Reason  string
}

// allowedFrom lists the statuses each status-bound action may run
// from. Actions absent from the table are handled specially in
// Decide: retry_payment is legal from any non-terminal status and
// upgrade_account is always legal.
var allowedFrom = map[Action][]Status{
	ActionCancel: {StatusPending, StatusConfirmed},
	ActionModify: {StatusPending, StatusConfirmed},
}

// Decide reports whether action may be performed on a booking in
// the given status. It is a pure predicate: the caller applies the
// resulting mutation (if any) with a conditional store write.
func Decide(action Action, current Status) Decision {
	if !current.Valid() {
		return Decision{Allowed: false, Reason: fmt.Sprintf("booking is in an unknown state %q", current)}
	}
	switch action {
	case ActionUpgradeAccount:
		// Linking a booking to an account is legal from every state,
		// including terminal ones.
		return Decision{Allowed: true}
	case ActionRetryPayment:
		if current.IsTerminal() {
			return Decision{Allowed: false, Reason: fmt.Sprintf("payment cannot be retried on a %s booking", current)}
		}
		return Decision{Allowed: true}
	case ActionCancel, ActionModify:
		for _, s := range allowedFrom[action] {
			if s == current {
				return Decision{Allowed: true}
			}
		}
		return Decision{Allowed: false, Reason: fmt.Sprintf("booking is %s and can no longer be changed", current)}
	}
	return Decision{Allowed: false, Reason: fmt.Sprintf("unknown action %q", action)}
}
