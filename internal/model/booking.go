package model

import (
	"time"

	"github.com/iliyamo/stay-reservation/internal/lifecycle"
)

// Booking records a guest's stay at a property. It is the only
// record the guest session layer mutates, and every mutation is
// conditional on the status the caller last read.
//
// Fields:
//  ID         – primary key identifier.
//  Code       – public booking code handed to the guest (never the ID).
//  TenantID   – owning tenant.
//  PropertyID – property being booked.
//  UserID     – linked account, nil until the guest upgrades.
//  GuestEmail – contact address; masked before display.
//  CheckIn    – first night of the stay (UTC date).
//  CheckOut   – departure date (UTC date, exclusive).
//  NumGuests  – number of guests staying.
//  Status     – lifecycle state (PENDING, CONFIRMED, ...).
//  TotalCents – last computed price in cents.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Booking struct {
	ID         uint64           // bookings.id
	Code       string           // bookings.code
	TenantID   uint64           // bookings.tenant_id
	PropertyID uint64           // bookings.property_id
	UserID     *uint64          // bookings.user_id (nullable)
	GuestEmail string           // bookings.guest_email
	CheckIn    time.Time        // bookings.check_in
	CheckOut   time.Time        // bookings.check_out
	NumGuests  int              // bookings.num_guests
	Status     lifecycle.Status // bookings.status
	TotalCents int64            // bookings.total_cents
	CreatedAt  time.Time        // bookings.created_at
	UpdatedAt  time.Time        // bookings.updated_at
}
