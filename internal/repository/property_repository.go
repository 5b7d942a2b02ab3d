package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/pricing"
)

// PropertyRepo reads properties and their pricing configuration.
// Pricing scalars live as columns on the properties table while the
// ordered seasonal rule list is a JSON column, preserving the
// owner-defined evaluation order.
type PropertyRepo struct {
	db *sql.DB
}

// NewPropertyRepo returns a new PropertyRepo bound to the given database.
func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// FindByID returns a property scoped to its tenant.
func (r *PropertyRepo) FindByID(ctx context.Context, tenantID, id uint64) (*model.Property, error) {
	const q = `SELECT id, tenant_id, name, created_at, updated_at FROM properties WHERE tenant_id = ? AND id = ?`
	var p model.Property
	err := r.db.QueryRowContext(ctx, q, tenantID, id).Scan(&p.ID, &p.TenantID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return &p, nil
}

// PricingConfigByProperty loads the pricing configuration for a
// property. It is read-only on the pricing path; owners edit it
// through a separate surface.
func (r *PropertyRepo) PricingConfigByProperty(ctx context.Context, propertyID uint64) (*pricing.Config, error) {
	const q = `SELECT base_price_cents, base_guests, extra_guest_fee_cents,
	                  weekend_multiplier, weekly_discount_percent, seasonal_rules,
	                  dynamic_enabled, occupancy_premium, occupancy_threshold_percent,
	                  last_minute_discount, early_bird_discount
	           FROM properties WHERE id = ?`
	var cfg pricing.Config
	var rulesJSON sql.NullString
	err := r.db.QueryRowContext(ctx, q, propertyID).Scan(
		&cfg.BasePriceCents, &cfg.BaseGuests, &cfg.ExtraGuestFeeCents,
		&cfg.WeekendMultiplier, &cfg.WeeklyDiscountPercent, &rulesJSON,
		&cfg.Dynamic.Enabled, &cfg.Dynamic.OccupancyPremium, &cfg.Dynamic.OccupancyThresholdPercent,
		&cfg.Dynamic.LastMinuteDiscount, &cfg.Dynamic.EarlyBirdDiscount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	if rulesJSON.Valid && rulesJSON.String != "" {
		if err := json.Unmarshal([]byte(rulesJSON.String), &cfg.SeasonalRules); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// OccupancyRatePercent snapshots how booked the property is over
// the next 30 days: the share of nights covered by non-canceled
// bookings, clamped to 100. The dynamic pricing premium keys off
// this value at request time.
func (r *PropertyRepo) OccupancyRatePercent(ctx context.Context, propertyID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(
	               DATEDIFF(LEAST(check_out, UTC_DATE() + INTERVAL 30 DAY),
	                        GREATEST(check_in, UTC_DATE()))), 0)
	           FROM bookings
	           WHERE property_id = ?
	             AND status IN ('PENDING','CONFIRMED','CHECKED_IN')
	             AND check_out > UTC_DATE()
	             AND check_in < UTC_DATE() + INTERVAL 30 DAY`
	var bookedNights int
	if err := r.db.QueryRowContext(ctx, q, propertyID).Scan(&bookedNights); err != nil {
		return 0, err
	}
	pct := bookedNights * 100 / 30
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct, nil
}
