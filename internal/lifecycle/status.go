// Package lifecycle defines the booking status enum and the rules
// governing which guest-initiated actions are legal from which
// status. The package is pure: it never touches the store, it only
// answers allow/deny with a reason and leaves the actual update to
// the caller.
package lifecycle

// Status is the closed set of booking states. It is deliberately a
// named type rather than a free string so every authorization point
// compares against the enum, not ad-hoc text.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCanceled   Status = "CANCELED"
	StatusNoShow     Status = "NO_SHOW"
)

// IsTerminal reports whether the status is a dead end: no guest
// action except an account upgrade is meaningful once reached.
func (s Status) IsTerminal() bool {
	return s == StatusCanceled || s == StatusNoShow
}

// Valid reports whether s is one of the known statuses. Records
// read from the store are checked before any transition decision.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCanceled, StatusNoShow:
		return true
	}
	return false
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}
