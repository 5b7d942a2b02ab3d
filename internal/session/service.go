// Package session implements the guest session boundary: issuing
// booking-scoped tokens from a public booking code and dispatching
// the handful of self-service actions a guest may perform during
// the token's lifetime. Sessions are stateless; every request is
// authorized by signature + expiry and re-reads the booking's
// current state from the store before deciding anything.
package session

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/stay-reservation/internal/lifecycle"
	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/pricing"
	"github.com/iliyamo/stay-reservation/internal/queue"
	"github.com/iliyamo/stay-reservation/internal/repository"
	"github.com/iliyamo/stay-reservation/internal/token"
	"github.com/iliyamo/stay-reservation/internal/utils"
)

// Store is the booking record store the service reads from and
// conditionally writes to. *repository.BookingRepo satisfies it;
// tests use an in-memory fake.
type Store interface {
	FindByCode(ctx context.Context, tenantID uint64, code string) (*model.Booking, error)
	FindByID(ctx context.Context, tenantID, id uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, expected, next lifecycle.Status) error
	UpdateStay(ctx context.Context, id uint64, expected lifecycle.Status, checkIn, checkOut time.Time, guests int, totalCents int64) error
	LinkUser(ctx context.Context, id, userID uint64) error
	IsFirstBooking(ctx context.Context, tenantID uint64, email string, excludeID uint64) (bool, error)
}

// PricingSource supplies the inputs a price recomputation needs.
// *repository.PropertyRepo satisfies it.
type PricingSource interface {
	PricingConfigByProperty(ctx context.Context, propertyID uint64) (*pricing.Config, error)
	OccupancyRatePercent(ctx context.Context, propertyID uint64) (int, error)
}

// Accounts creates or looks up full user accounts for the upgrade
// action. *repository.UserRepo satisfies it.
type Accounts interface {
	Create(ctx context.Context, email, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// PaymentStarter kicks off an external payment session. Capturing
// the payment itself happens outside this core.
type PaymentStarter interface {
	Start(ctx context.Context, b *model.Booking) (string, error)
}

// EventPublisher receives guest action events. Publishing happens
// asynchronously and failures never affect the request.
type EventPublisher func(ctx context.Context, ev queue.GuestActionEvent) error

// Service wires the token codec, the state machine and the external
// collaborators together. The clock is injectable for tests.
type Service struct {
	store      Store
	prices     PricingSource
	accounts   Accounts
	payments   PaymentStarter
	events     EventPublisher
	codec      *token.Codec
	bcryptCost int
	now        func() time.Time
}

// New builds a Service. events and payments may be nil when the
// corresponding collaborator is not configured; a nil now falls
// back to time.Now.
func New(store Store, prices PricingSource, accounts Accounts, payments PaymentStarter, events EventPublisher, codec *token.Codec, bcryptCost int, now func() time.Time) *Service {
	if store == nil || prices == nil || accounts == nil || codec == nil {
		panic("nil dependency passed to session.New")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:      store,
		prices:     prices,
		accounts:   accounts,
		payments:   payments,
		events:     events,
		codec:      codec,
		bcryptCost: bcryptCost,
		now:        now,
	}
}

// BookingSummary is the guest-facing view of a booking. The email
// is always masked before it reaches this struct.
type BookingSummary struct {
	Code       string `json:"code"`
	PropertyID uint64 `json:"property_id"`
	GuestEmail string `json:"guest_email"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	NumGuests  int    `json:"num_guests"`
	Status     string `json:"status"`
	TotalCents int64  `json:"total_cents"`
}

// SessionStart is the result of a successful booking-code lookup.
type SessionStart struct {
	Booking   BookingSummary `json:"booking"`
	Token     string         `json:"session_token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ActionPayload carries the optional fields of a guest action.
// Which fields matter depends on the action.
type ActionPayload struct {
	CheckIn   time.Time
	CheckOut  time.Time
	NumGuests int
	Email     string
	Password  string
}

// ActionResult is the outcome of a performed action. Breakdown is
// set for price-affecting actions (zeroed when the booking was
// canceled), PaymentRef for payment retries and AccountID for
// account upgrades.
type ActionResult struct {
	Booking    BookingSummary     `json:"booking"`
	Breakdown  *pricing.Breakdown `json:"price_breakdown,omitempty"`
	PaymentRef string             `json:"payment_ref,omitempty"`
	AccountID  uint64             `json:"account_id,omitempty"`
}

// BeginSession looks a booking up by its public code, masks the
// guest email for display and mints a token scoped to the booking's
// internal id.
func (s *Service) BeginSession(ctx context.Context, tenantID uint64, code string) (*SessionStart, error) {
	if code == "" {
		return nil, &ValidationError{Msg: "booking code is required"}
	}
	b, err := s.store.FindByCode(ctx, tenantID, code)
	if err != nil {
		return nil, s.lookupErr("find booking by code", err)
	}
	tok, exp, err := s.codec.Issue(b.ID)
	if err != nil {
		return nil, &UpstreamError{Op: "issue session token", Err: err}
	}
	return &SessionStart{
		Booking:   summarize(b),
		Token:     tok,
		ExpiresAt: exp,
	}, nil
}

// PerformAction verifies the token, re-reads the booking's current
// state (never trusting anything cached in the token), asks the
// state machine whether the action is legal and executes it. For
// cancel and modify the result carries a refreshed breakdown.
func (s *Service) PerformAction(ctx context.Context, tenantID uint64, rawToken string, action lifecycle.Action, p ActionPayload) (*ActionResult, error) {
	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		// Reject before any state is read.
		return nil, ErrSessionInvalid
	}
	b, err := s.store.FindByID(ctx, tenantID, claims.BookingID)
	if err != nil {
		return nil, s.lookupErr("find booking by id", err)
	}
	if d := lifecycle.Decide(action, b.Status); !d.Allowed {
		return nil, &StateConflictError{Action: action, Current: b.Status, Reason: d.Reason}
	}

	switch action {
	case lifecycle.ActionCancel:
		return s.cancel(ctx, b)
	case lifecycle.ActionModify:
		return s.modify(ctx, b, p)
	case lifecycle.ActionRetryPayment:
		return s.retryPayment(ctx, b)
	case lifecycle.ActionUpgradeAccount:
		return s.upgradeAccount(ctx, b, p)
	}
	return nil, &ValidationError{Msg: "unknown action"}
}

func (s *Service) cancel(ctx context.Context, b *model.Booking) (*ActionResult, error) {
	from := b.Status
	if err := s.store.UpdateStatus(ctx, b.ID, from, lifecycle.StatusCanceled); err != nil {
		return nil, s.writeErr("cancel booking", b, err)
	}
	b.Status = lifecycle.StatusCanceled
	s.publish(b, lifecycle.ActionCancel, from, lifecycle.StatusCanceled)
	// A canceled booking has no price; return a zero breakdown so
	// callers can clear any displayed totals.
	return &ActionResult{Booking: summarize(b), Breakdown: &pricing.Breakdown{}}, nil
}

func (s *Service) modify(ctx context.Context, b *model.Booking, p ActionPayload) (*ActionResult, error) {
	if p.CheckIn.IsZero() || p.CheckOut.IsZero() {
		return nil, &ValidationError{Msg: "check_in and check_out are required"}
	}
	if !p.CheckOut.After(p.CheckIn) {
		return nil, &ValidationError{Msg: "check_out must be after check_in"}
	}
	if p.NumGuests < 1 {
		return nil, &ValidationError{Msg: "num_guests must be at least 1"}
	}
	breakdown, err := s.quote(ctx, b, p.CheckIn, p.CheckOut, p.NumGuests)
	if err != nil {
		return nil, err
	}
	from := b.Status
	if err := s.store.UpdateStay(ctx, b.ID, from, p.CheckIn, p.CheckOut, p.NumGuests, breakdown.TotalCents); err != nil {
		return nil, s.writeErr("modify booking", b, err)
	}
	b.CheckIn, b.CheckOut, b.NumGuests, b.TotalCents = p.CheckIn, p.CheckOut, p.NumGuests, breakdown.TotalCents
	s.publish(b, lifecycle.ActionModify, from, from)
	return &ActionResult{Booking: summarize(b), Breakdown: &breakdown}, nil
}

func (s *Service) retryPayment(ctx context.Context, b *model.Booking) (*ActionResult, error) {
	if s.payments == nil {
		return nil, &UpstreamError{Op: "start payment session", Err: errors.New("payments not configured")}
	}
	ref, err := s.payments.Start(ctx, b)
	if err != nil {
		return nil, &UpstreamError{Op: "start payment session", Err: err}
	}
	s.publish(b, lifecycle.ActionRetryPayment, b.Status, b.Status)
	return &ActionResult{Booking: summarize(b), PaymentRef: ref}, nil
}

func (s *Service) upgradeAccount(ctx context.Context, b *model.Booking, p ActionPayload) (*ActionResult, error) {
	if p.Password == "" {
		return nil, &ValidationError{Msg: "password is required"}
	}
	// Normalize here so lookup and create agree on the identity
	// regardless of how the store canonicalizes addresses.
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		email = strings.ToLower(strings.TrimSpace(b.GuestEmail))
	}
	var userID uint64
	existing, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// Linking to an existing identity requires proving it.
		if !utils.VerifyPassword(existing.PasswordHash, p.Password) {
			return nil, &ValidationError{Msg: "an account with this email exists and the password does not match"}
		}
		userID = existing.ID
	case errors.Is(err, sql.ErrNoRows):
		userID, err = s.accounts.Create(ctx, email, p.Password, s.bcryptCost)
		if err != nil {
			return nil, &UpstreamError{Op: "create account", Err: err}
		}
	default:
		return nil, &UpstreamError{Op: "look up account", Err: err}
	}
	if err := s.store.LinkUser(ctx, b.ID, userID); err != nil {
		return nil, &UpstreamError{Op: "link account", Err: err}
	}
	uid := userID
	b.UserID = &uid
	return &ActionResult{Booking: summarize(b), AccountID: userID}, nil
}

// quote recomputes the price for the booking's property with the
// given stay parameters, snapshotting occupancy and first-booking
// status at request time.
func (s *Service) quote(ctx context.Context, b *model.Booking, checkIn, checkOut time.Time, guests int) (pricing.Breakdown, error) {
	cfg, err := s.prices.PricingConfigByProperty(ctx, b.PropertyID)
	if err != nil {
		return pricing.Breakdown{}, &UpstreamError{Op: "load pricing config", Err: err}
	}
	occ, err := s.prices.OccupancyRatePercent(ctx, b.PropertyID)
	if err != nil {
		return pricing.Breakdown{}, &UpstreamError{Op: "snapshot occupancy", Err: err}
	}
	first, err := s.store.IsFirstBooking(ctx, b.TenantID, b.GuestEmail, b.ID)
	if err != nil {
		return pricing.Breakdown{}, &UpstreamError{Op: "check first booking", Err: err}
	}
	stay := pricing.Stay{
		CheckIn:              checkIn,
		CheckOut:             checkOut,
		Guests:               guests,
		OccupancyRatePercent: occ,
		FirstBooking:         first,
	}
	out, err := pricing.Quote(cfg, stay, s.now())
	if err != nil {
		return pricing.Breakdown{}, &UpstreamError{Op: "compute price", Err: err}
	}
	return out, nil
}

// lookupErr translates store read failures. Not-found is reported
// identically for every cause so internal ids never leak.
func (s *Service) lookupErr(op string, err error) error {
	if errors.Is(err, repository.ErrBookingNotFound) {
		return ErrNotFound
	}
	return &UpstreamError{Op: op, Err: err}
}

// writeErr translates conditional-write failures: a lost write is a
// state conflict the guest should retry, anything else is upstream.
func (s *Service) writeErr(op string, b *model.Booking, err error) error {
	if errors.Is(err, repository.ErrStateChanged) {
		return &StateConflictError{
			Current: b.Status,
			Reason:  "booking changed while processing; please retry",
		}
	}
	return &UpstreamError{Op: op, Err: err}
}

func (s *Service) publish(b *model.Booking, action lifecycle.Action, from, to lifecycle.Status) {
	if s.events == nil {
		return
	}
	ev := queue.GuestActionEvent{
		BookingID:  b.ID,
		Code:       b.Code,
		TenantID:   b.TenantID,
		PropertyID: b.PropertyID,
		Action:     string(action),
		FromStatus: from.String(),
		ToStatus:   to.String(),
		TotalCents: b.TotalCents,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}
	events := s.events
	go func() { _ = events(context.Background(), ev) }()
}

func summarize(b *model.Booking) BookingSummary {
	return BookingSummary{
		Code:       b.Code,
		PropertyID: b.PropertyID,
		GuestEmail: utils.MaskEmail(b.GuestEmail),
		CheckIn:    b.CheckIn.Format("2006-01-02"),
		CheckOut:   b.CheckOut.Format("2006-01-02"),
		NumGuests:  b.NumGuests,
		Status:     b.Status.String(),
		TotalCents: b.TotalCents,
	}
}
