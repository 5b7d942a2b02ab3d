package lifecycle

import "testing"

func TestDecideCancel(t *testing.T) {
	cases := []struct {
		status  Status
		allowed bool
	}{
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusCheckedIn, false},
		{StatusCheckedOut, false},
		{StatusCanceled, false},
		{StatusNoShow, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			d := Decide(ActionCancel, tc.status)
			if d.Allowed != tc.allowed {
				t.Errorf("cancel from %s: allowed = %v, want %v", tc.status, d.Allowed, tc.allowed)
			}
			if !tc.allowed && d.Reason == "" {
				t.Errorf("cancel from %s: denied without a reason", tc.status)
			}
		})
	}
}

func TestDecideModify(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed} {
		if d := Decide(ActionModify, s); !d.Allowed {
			t.Errorf("modify from %s should be allowed: %s", s, d.Reason)
		}
	}
	for _, s := range []Status{StatusCheckedIn, StatusCheckedOut, StatusCanceled, StatusNoShow} {
		if d := Decide(ActionModify, s); d.Allowed {
			t.Errorf("modify from %s should be rejected", s)
		}
	}
}

func TestDecideRetryPayment(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut} {
		if d := Decide(ActionRetryPayment, s); !d.Allowed {
			t.Errorf("retry payment from %s should be allowed: %s", s, d.Reason)
		}
	}
	for _, s := range []Status{StatusCanceled, StatusNoShow} {
		if d := Decide(ActionRetryPayment, s); d.Allowed {
			t.Errorf("retry payment from terminal %s should be rejected", s)
		}
	}
}

func TestDecideUpgradeAlwaysAllowed(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCanceled, StatusNoShow} {
		if d := Decide(ActionUpgradeAccount, s); !d.Allowed {
			t.Errorf("upgrade from %s should always be allowed: %s", s, d.Reason)
		}
	}
}

func TestDecideUnknownStatus(t *testing.T) {
	if d := Decide(ActionCancel, Status("LOST")); d.Allowed {
		t.Error("unknown status must never allow an action")
	}
}

func TestDecideUnknownAction(t *testing.T) {
	if d := Decide(Action("teleport"), StatusPending); d.Allowed {
		t.Error("unknown action must be rejected")
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCanceled, StatusNoShow} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
