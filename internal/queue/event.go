// Package queue defines message payloads exchanged over the message broker.
package queue

// GuestActionEvent is published when a guest session successfully
// performs a state-changing action (cancel, modify, payment retry).
// It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type GuestActionEvent struct {
	BookingID  uint64 `json:"booking_id"`
	Code       string `json:"code"`
	TenantID   uint64 `json:"tenant_id"`
	PropertyID uint64 `json:"property_id"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	TotalCents int64  `json:"total_cents"`
	OccurredAt string `json:"occurred_at"`
}
