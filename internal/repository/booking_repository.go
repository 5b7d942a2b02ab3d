package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/stay-reservation/internal/lifecycle"
	"github.com/iliyamo/stay-reservation/internal/model"
)

// BookingRepo provides read and conditional-write operations for
// bookings. Every mutation carries the status the caller last read
// and matches zero rows when a concurrent request changed it; that
// surfaces as ErrStateChanged rather than a silent overwrite. All
// timestamp fields are assumed to be stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, code, tenant_id, property_id, user_id, guest_email,
       check_in, check_out, num_guests, status, total_cents, created_at, updated_at`

// FindByCode returns the booking with the given public code within
// a tenant. Lookups are always code-based on the session path; the
// internal id never appears in a URL.
func (r *BookingRepo) FindByCode(ctx context.Context, tenantID uint64, code string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = ? AND code = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, strings.TrimSpace(code)))
}

// FindByID returns the booking with the given internal id within a
// tenant. Used after token verification to re-read current state.
func (r *BookingRepo) FindByID(ctx context.Context, tenantID, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = ? AND id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
}

// UpdateStatus moves a booking from expected to next. The WHERE
// clause repeats the expected status so a concurrent transition
// loses cleanly instead of clobbering the newer state.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, expected, next lifecycle.Status) error {
	const q = `UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(next), id, string(expected))
	if err != nil {
		return err
	}
	return r.requireRow(res)
}

// UpdateStay rewrites a booking's dates, guest count and recomputed
// total, conditional on the status the decision was based on.
func (r *BookingRepo) UpdateStay(ctx context.Context, id uint64, expected lifecycle.Status, checkIn, checkOut time.Time, guests int, totalCents int64) error {
	const q = `UPDATE bookings
	           SET check_in = ?, check_out = ?, num_guests = ?, total_cents = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, checkIn.UTC(), checkOut.UTC(), guests, totalCents, id, string(expected))
	if err != nil {
		return err
	}
	return r.requireRow(res)
}

// LinkUser attaches an account to a booking. Legal from any status,
// so there is no conditional clause beyond the id.
func (r *BookingRepo) LinkUser(ctx context.Context, id, userID uint64) error {
	const q = `UPDATE bookings SET user_id = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// IsFirstBooking reports whether the guest email has no other
// non-canceled booking with this tenant besides the one given. The
// result feeds the engine's flat first-booking discount.
func (r *BookingRepo) IsFirstBooking(ctx context.Context, tenantID uint64, email string, excludeID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM bookings
	           WHERE tenant_id = ? AND guest_email = ? AND id <> ? AND status <> 'CANCELED'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, tenantID, strings.ToLower(strings.TrimSpace(email)), excludeID).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *BookingRepo) scanOne(row *sql.Row) (*model.Booking, error) {
	var b model.Booking
	var userID sql.NullInt64
	var status string
	err := row.Scan(
		&b.ID, &b.Code, &b.TenantID, &b.PropertyID, &userID, &b.GuestEmail,
		&b.CheckIn, &b.CheckOut, &b.NumGuests, &status, &b.TotalCents,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		b.UserID = &uid
	}
	b.Status = lifecycle.Status(status)
	return &b, nil
}

func (r *BookingRepo) requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStateChanged
	}
	return nil
}
