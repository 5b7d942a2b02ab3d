package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/stay-reservation/internal/lifecycle"
	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/pricing"
	"github.com/iliyamo/stay-reservation/internal/repository"
	"github.com/iliyamo/stay-reservation/internal/token"
	"github.com/iliyamo/stay-reservation/internal/utils"
)

var testNow = time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// fakeStore keeps bookings in memory and applies the same
// conditional-write rule as the SQL repository.
type fakeStore struct {
	bookings map[uint64]*model.Booking

	findByIDCalls int
	stayWritten   bool
	writeErr      error // forced error for the next conditional write
	firstBooking  bool
}

func (f *fakeStore) FindByCode(_ context.Context, tenantID uint64, code string) (*model.Booking, error) {
	for _, b := range f.bookings {
		if b.TenantID == tenantID && b.Code == code {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (f *fakeStore) FindByID(_ context.Context, tenantID, id uint64) (*model.Booking, error) {
	f.findByIDCalls++
	b, ok := f.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uint64, expected, next lifecycle.Status) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	b, ok := f.bookings[id]
	if !ok || b.Status != expected {
		return repository.ErrStateChanged
	}
	b.Status = next
	return nil
}

func (f *fakeStore) UpdateStay(_ context.Context, id uint64, expected lifecycle.Status, checkIn, checkOut time.Time, guests int, totalCents int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	b, ok := f.bookings[id]
	if !ok || b.Status != expected {
		return repository.ErrStateChanged
	}
	b.CheckIn, b.CheckOut, b.NumGuests, b.TotalCents = checkIn, checkOut, guests, totalCents
	f.stayWritten = true
	return nil
}

func (f *fakeStore) LinkUser(_ context.Context, id, userID uint64) error {
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	uid := userID
	b.UserID = &uid
	return nil
}

func (f *fakeStore) IsFirstBooking(context.Context, uint64, string, uint64) (bool, error) {
	return f.firstBooking, nil
}

type fakePrices struct {
	cfg       *pricing.Config
	occupancy int
}

func (f *fakePrices) PricingConfigByProperty(context.Context, uint64) (*pricing.Config, error) {
	return f.cfg, nil
}

func (f *fakePrices) OccupancyRatePercent(context.Context, uint64) (int, error) {
	return f.occupancy, nil
}

type fakeAccounts struct {
	users   map[string]*model.User
	nextID  uint64
	created int
}

func (f *fakeAccounts) Create(_ context.Context, email, password string, cost int) (uint64, error) {
	f.nextID++
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	f.users[email] = &model.User{ID: f.nextID, Email: email, PasswordHash: hash}
	f.created++
	return f.nextID, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type fakePayments struct {
	ref string
	err error
}

func (f *fakePayments) Start(context.Context, *model.Booking) (string, error) {
	return f.ref, f.err
}

func testConfig() *pricing.Config {
	return &pricing.Config{
		BasePriceCents:        10000,
		BaseGuests:            2,
		ExtraGuestFeeCents:    2500,
		WeekendMultiplier:     1,
		WeeklyDiscountPercent: 10,
	}
}

func testBooking() *model.Booking {
	return &model.Booking{
		ID:         1,
		Code:       "BK-7H2K9",
		TenantID:   10,
		PropertyID: 100,
		GuestEmail: "frank@example.com",
		CheckIn:    time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2025, 12, 13, 0, 0, 0, 0, time.UTC),
		NumGuests:  2,
		Status:     lifecycle.StatusPending,
		TotalCents: 41500,
	}
}

func newFixture(t *testing.T) (*Service, *fakeStore, *fakeAccounts, *fakePayments) {
	t.Helper()
	store := &fakeStore{bookings: map[uint64]*model.Booking{1: testBooking()}}
	accounts := &fakeAccounts{users: map[string]*model.User{}}
	payments := &fakePayments{ref: "pay_abc123"}
	prices := &fakePrices{cfg: testConfig()}
	codec := token.NewCodec("service-test-secret", 15*time.Minute, fixedNow)
	svc := New(store, prices, accounts, payments, nil, codec, bcrypt.MinCost, fixedNow)
	return svc, store, accounts, payments
}

func sessionToken(t *testing.T, svc *Service) string {
	t.Helper()
	start, err := svc.BeginSession(context.Background(), 10, "BK-7H2K9")
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	return start.Token
}

func TestBeginSession(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	start, err := svc.BeginSession(context.Background(), 10, "BK-7H2K9")
	if err != nil {
		t.Fatalf("BeginSession returned error: %v", err)
	}
	if start.Token == "" {
		t.Error("expected a session token")
	}
	if want := testNow.Add(15 * time.Minute); !start.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", start.ExpiresAt, want)
	}
	if got, want := start.Booking.GuestEmail, "f***k@example.com"; got != want {
		t.Errorf("guest email = %q, want masked %q", got, want)
	}
	if start.Booking.Code != "BK-7H2K9" {
		t.Errorf("code = %q", start.Booking.Code)
	}
	if start.Booking.CheckIn != "2025-12-10" || start.Booking.CheckOut != "2025-12-13" {
		t.Errorf("dates = %q..%q", start.Booking.CheckIn, start.Booking.CheckOut)
	}
}

func TestBeginSessionEmptyCode(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	var verr *ValidationError
	if _, err := svc.BeginSession(context.Background(), 10, ""); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBeginSessionUnknownCode(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	if _, err := svc.BeginSession(context.Background(), 10, "BK-NOPE1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBeginSessionWrongTenant(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	if _, err := svc.BeginSession(context.Background(), 11, "BK-7H2K9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("another tenant's code must look unknown, got %v", err)
	}
}

func TestPerformActionRejectsBadTokenBeforeRead(t *testing.T) {
	svc, store, _, _ := newFixture(t)
	_, err := svc.PerformAction(context.Background(), 10, "bogus.token.here", lifecycle.ActionCancel, ActionPayload{})
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
	if store.findByIDCalls != 0 {
		t.Error("store must not be read when the token is invalid")
	}
}

func TestPerformActionExpiredToken(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	tok := sessionToken(t, svc)

	lateCodec := token.NewCodec("service-test-secret", 15*time.Minute, func() time.Time {
		return testNow.Add(16 * time.Minute)
	})
	store := &fakeStore{bookings: map[uint64]*model.Booking{1: testBooking()}}
	late := New(store, &fakePrices{cfg: testConfig()}, &fakeAccounts{users: map[string]*model.User{}}, nil, nil, lateCodec, bcrypt.MinCost, fixedNow)
	if _, err := late.PerformAction(context.Background(), 10, tok, lifecycle.ActionCancel, ActionPayload{}); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for expired token, got %v", err)
	}
}

func TestCancelPending(t *testing.T) {
	svc, store, _, _ := newFixture(t)
	tok := sessionToken(t, svc)

	res, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionCancel, ActionPayload{})
	if err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if res.Booking.Status != "CANCELED" {
		t.Errorf("status = %q, want CANCELED", res.Booking.Status)
	}
	if store.bookings[1].Status != lifecycle.StatusCanceled {
		t.Error("store status not updated")
	}
	if res.Breakdown == nil {
		t.Fatal("cancel must return a breakdown")
	}
	if *res.Breakdown != (pricing.Breakdown{}) {
		t.Errorf("canceled booking must carry a zero breakdown, got %+v", *res.Breakdown)
	}
}

func TestCancelAfterCheckIn(t *testing.T) {
	svc, store, _, _ := newFixture(t)
	tok := sessionToken(t, svc)
	store.bookings[1].Status = lifecycle.StatusCheckedIn

	var conflict *StateConflictError
	_, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionCancel, ActionPayload{})
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError, got %v", err)
	}
	if conflict.Current != lifecycle.StatusCheckedIn {
		t.Errorf("conflict reports status %q", conflict.Current)
	}
	if store.bookings[1].Status != lifecycle.StatusCheckedIn {
		t.Error("booking must be untouched after a refused action")
	}
}

func TestCancelLostWrite(t *testing.T) {
	svc, store, _, _ := newFixture(t)
	tok := sessionToken(t, svc)
	store.writeErr = repository.ErrStateChanged

	var conflict *StateConflictError
	if _, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionCancel, ActionPayload{}); !errors.As(err, &conflict) {
		t.Fatalf("a lost conditional write must surface as StateConflictError, got %v", err)
	}
}

func TestModifyValidation(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	tok := sessionToken(t, svc)

	in := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		payload ActionPayload
	}{
		{"missing dates", ActionPayload{NumGuests: 2}},
		{"reversed dates", ActionPayload{CheckIn: out, CheckOut: in, NumGuests: 2}},
		{"zero guests", ActionPayload{CheckIn: in, CheckOut: out}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var verr *ValidationError
			if _, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionModify, tc.payload); !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestModifyRecomputesPrice(t *testing.T) {
	svc, store, _, _ := newFixture(t)
	tok := sessionToken(t, svc)

	payload := ActionPayload{
		CheckIn:   time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), // Monday
		CheckOut:  time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC),
		NumGuests: 3,
	}
	res, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionModify, payload)
	if err != nil {
		t.Fatalf("modify returned error: %v", err)
	}
	// 2 weekday nights at 10000 + 2500 extra-guest = 25000 nightly,
	// plus 8500 cleaning and 12% service fee of 3000.
	if got, want := res.Breakdown.TotalCents, int64(36500); got != want {
		t.Errorf("TotalCents = %d, want %d", got, want)
	}
	if !store.stayWritten {
		t.Error("modified stay was not persisted")
	}
	if store.bookings[1].TotalCents != res.Breakdown.TotalCents {
		t.Error("persisted total differs from returned breakdown")
	}
	if res.Booking.CheckIn != "2025-12-15" || res.Booking.NumGuests != 3 {
		t.Errorf("summary not refreshed: %+v", res.Booking)
	}
}

func TestRetryPayment(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	tok := sessionToken(t, svc)

	res, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionRetryPayment, ActionPayload{})
	if err != nil {
		t.Fatalf("retry payment returned error: %v", err)
	}
	if res.PaymentRef != "pay_abc123" {
		t.Errorf("payment ref = %q", res.PaymentRef)
	}
}

func TestRetryPaymentUpstreamFailure(t *testing.T) {
	svc, _, _, payments := newFixture(t)
	tok := sessionToken(t, svc)
	payments.err = errors.New("gateway down")

	var up *UpstreamError
	if _, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionRetryPayment, ActionPayload{}); !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestUpgradeAccountCreatesUser(t *testing.T) {
	svc, store, accounts, _ := newFixture(t)
	tok := sessionToken(t, svc)

	res, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionUpgradeAccount, ActionPayload{Password: "s3cret-pw"})
	if err != nil {
		t.Fatalf("upgrade returned error: %v", err)
	}
	if accounts.created != 1 {
		t.Errorf("created %d accounts, want 1", accounts.created)
	}
	if res.AccountID == 0 {
		t.Error("expected a non-zero account id")
	}
	b := store.bookings[1]
	if b.UserID == nil || *b.UserID != res.AccountID {
		t.Error("booking not linked to the new account")
	}
	u := accounts.users["frank@example.com"]
	if u == nil {
		t.Fatal("account created under unexpected email")
	}
	if !utils.VerifyPassword(u.PasswordHash, "s3cret-pw") {
		t.Error("stored hash does not verify the chosen password")
	}
}

func TestUpgradeAccountLinksExisting(t *testing.T) {
	svc, store, accounts, _ := newFixture(t)
	tok := sessionToken(t, svc)
	hash, err := utils.HashPassword("known-pw", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	accounts.users["frank@example.com"] = &model.User{ID: 77, Email: "frank@example.com", PasswordHash: hash}

	res, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionUpgradeAccount, ActionPayload{Password: "known-pw"})
	if err != nil {
		t.Fatalf("upgrade returned error: %v", err)
	}
	if res.AccountID != 77 {
		t.Errorf("account id = %d, want existing 77", res.AccountID)
	}
	if accounts.created != 0 {
		t.Error("no new account should be created")
	}
	if store.bookings[1].UserID == nil || *store.bookings[1].UserID != 77 {
		t.Error("booking not linked to existing account")
	}
}

func TestUpgradeAccountNormalizesEmail(t *testing.T) {
	svc, store, accounts, _ := newFixture(t)
	tok := sessionToken(t, svc)
	hash, err := utils.HashPassword("known-pw", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	accounts.users["frank@example.com"] = &model.User{ID: 77, Email: "frank@example.com", PasswordHash: hash}

	// A differently-cased, padded spelling must resolve to the same
	// identity instead of minting a duplicate account.
	res, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionUpgradeAccount, ActionPayload{
		Email:    "  Frank@Example.COM ",
		Password: "known-pw",
	})
	if err != nil {
		t.Fatalf("upgrade returned error: %v", err)
	}
	if res.AccountID != 77 {
		t.Errorf("account id = %d, want existing 77", res.AccountID)
	}
	if accounts.created != 0 {
		t.Error("no new account should be created")
	}
	if store.bookings[1].UserID == nil || *store.bookings[1].UserID != 77 {
		t.Error("booking not linked to existing account")
	}
}

func TestUpgradeAccountWrongPassword(t *testing.T) {
	svc, _, accounts, _ := newFixture(t)
	tok := sessionToken(t, svc)
	hash, err := utils.HashPassword("known-pw", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	accounts.users["frank@example.com"] = &model.User{ID: 77, Email: "frank@example.com", PasswordHash: hash}

	var verr *ValidationError
	if _, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionUpgradeAccount, ActionPayload{Password: "wrong-pw"}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpgradeAccountRequiresPassword(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	tok := sessionToken(t, svc)
	var verr *ValidationError
	if _, err := svc.PerformAction(context.Background(), 10, tok, lifecycle.ActionUpgradeAccount, ActionPayload{}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
