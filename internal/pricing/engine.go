// Package pricing computes an itemized nightly price breakdown for
// a stay. All money is held in integer cents and every fractional
// step rounds half away from zero, so repeated recomputation of the
// same stay can never drift. Quote is a pure function: it reads
// nothing but its arguments and holds no state between calls.
package pricing

import (
	"errors"
	"math"
	"time"
)

// Fee constants applied to every priced stay.
const (
	cleaningFeeCents     = 8500 // flat fee, independent of stay length
	serviceFeePercent    = 12   // of the final nightly total
	firstBookingPercent  = 10   // flat new-guest discount
	lastMinuteDaysCutoff = 3    // check-in closer than this -> last-minute factor
	earlyBirdDaysCutoff  = 60   // check-in further than this -> early-bird factor
	minNightsWeeklyRate  = 7
)

// ErrNilConfig is the only error Quote returns. Business inputs
// that simply describe "nothing to price yet" (no nights, no
// guests) produce a zero breakdown instead.
var ErrNilConfig = errors.New("pricing: nil config")

// SeasonalRule adjusts the nightly rate during a same-year month/day
// window. Rules are evaluated in list order and the first match
// wins; overlapping rules are never merged.
type SeasonalRule struct {
	Name       string  `json:"name"`
	StartMonth int     `json:"start_month"`
	StartDay   int     `json:"start_day"`
	EndMonth   int     `json:"end_month"`
	EndDay     int     `json:"end_day"`
	Multiplier float64 `json:"multiplier"`
}

// DynamicConfig controls demand-driven adjustments. When disabled,
// neither the occupancy premium nor the lead-time factors apply.
type DynamicConfig struct {
	Enabled                   bool    `json:"enabled"`
	OccupancyPremium          float64 `json:"occupancy_premium"`
	OccupancyThresholdPercent int     `json:"occupancy_threshold_percent"`
	LastMinuteDiscount        float64 `json:"last_minute_discount"`
	EarlyBirdDiscount         float64 `json:"early_bird_discount"`
}

// Config is a property's pricing configuration. It is set by the
// property owner and read-only during computation. Multipliers are
// non-negative and BaseGuests is at least 1.
type Config struct {
	BasePriceCents        int64          `json:"base_price_cents"`
	BaseGuests            int            `json:"base_guests"`
	ExtraGuestFeeCents    int64          `json:"extra_guest_fee_cents"`
	WeekendMultiplier     float64        `json:"weekend_multiplier"`
	WeeklyDiscountPercent int            `json:"weekly_discount_percent"`
	SeasonalRules         []SeasonalRule `json:"seasonal_rules"`
	Dynamic               DynamicConfig  `json:"dynamic"`
}

// Stay carries the per-request inputs of a price computation. It is
// an ephemeral value constructed per call; the engine never holds
// date-range state of its own.
type Stay struct {
	CheckIn              time.Time
	CheckOut             time.Time
	Guests               int
	OccupancyRatePercent int
	FirstBooking         bool
}

// Breakdown is the itemized output of Quote. It is created fresh on
// every computation and never mutated; a new date selection yields
// a new Breakdown.
type Breakdown struct {
	Nights                    int     `json:"nights"`
	BasePriceTotalCents       int64   `json:"base_price_total_cents"`
	ExtraGuestFeeTotalCents   int64   `json:"extra_guest_fee_total_cents"`
	NightlyTotalCents         int64   `json:"nightly_total_cents"`
	DiscountCents             int64   `json:"discount_cents"`
	FirstBookingDiscountCents int64   `json:"first_booking_discount_cents"`
	CleaningFeeCents          int64   `json:"cleaning_fee_cents"`
	ServiceFeeCents           int64   `json:"service_fee_cents"`
	TotalCents                int64   `json:"total_cents"`
	AvgNightlyRateCents       int64   `json:"avg_nightly_rate_cents"`
	AppliedWeekendMultiplier  bool    `json:"applied_weekend_multiplier"`
	AppliedSeasonName         string  `json:"applied_season_name,omitempty"`
	DemandFactor              float64 `json:"demand_factor"`
}

// Quote computes the price breakdown for a stay under cfg. The now
// argument anchors the lead-time factors and must come from the
// caller's clock so expiry and lead-time logic stay testable.
//
// A missing date, non-positive night count or guest count is not an
// error: it is the "no dates selected yet" state and yields an
// all-zero breakdown so calling UIs can render an empty summary.
func Quote(cfg *Config, stay Stay, now time.Time) (Breakdown, error) {
	if cfg == nil {
		return Breakdown{}, ErrNilConfig
	}

	// Both dates must be set before a night count means anything;
	// subtracting from the zero time would price a non-stay.
	if stay.CheckIn.IsZero() || stay.CheckOut.IsZero() {
		return Breakdown{}, nil
	}
	nights := int(math.Round(stay.CheckOut.Sub(stay.CheckIn).Hours() / 24))
	if nights <= 0 || stay.Guests < 1 {
		return Breakdown{}, nil
	}

	// Demand and lead-time factors depend only on stay-level values,
	// so they are computed once per stay while the seasonal and
	// weekend factors below are re-evaluated per night.
	demand, lead := 1.0, 1.0
	if cfg.Dynamic.Enabled {
		if stay.OccupancyRatePercent >= cfg.Dynamic.OccupancyThresholdPercent {
			demand = cfg.Dynamic.OccupancyPremium
		}
		daysUntil := int(math.Ceil(stay.CheckIn.Sub(now).Hours() / 24))
		if daysUntil < lastMinuteDaysCutoff {
			lead = cfg.Dynamic.LastMinuteDiscount
		} else if daysUntil > earlyBirdDaysCutoff {
			lead = cfg.Dynamic.EarlyBirdDiscount
		}
	}

	out := Breakdown{
		Nights:       nights,
		DemandFactor: demand * lead,
	}

	for i := 0; i < nights; i++ {
		night := stay.CheckIn.AddDate(0, 0, i)
		rate := cfg.BasePriceCents

		if rule, ok := matchSeason(cfg.SeasonalRules, night); ok {
			rate = mulRound(rate, rule.Multiplier)
			if out.AppliedSeasonName == "" {
				out.AppliedSeasonName = rule.Name
			}
		}
		if wd := night.Weekday(); wd == time.Friday || wd == time.Saturday {
			rate = mulRound(rate, cfg.WeekendMultiplier)
			if cfg.WeekendMultiplier > 1 {
				out.AppliedWeekendMultiplier = true
			}
		}
		rate = mulRound(rate, demand)
		rate = mulRound(rate, lead)

		out.BasePriceTotalCents += rate
	}

	extraGuests := stay.Guests - cfg.BaseGuests
	if extraGuests > 0 {
		out.ExtraGuestFeeTotalCents = int64(extraGuests) * cfg.ExtraGuestFeeCents * int64(nights)
	}
	out.NightlyTotalCents = out.BasePriceTotalCents + out.ExtraGuestFeeTotalCents

	if nights >= minNightsWeeklyRate && cfg.WeeklyDiscountPercent > 0 {
		out.DiscountCents = percentOf(out.NightlyTotalCents, cfg.WeeklyDiscountPercent)
	}
	discounted := out.NightlyTotalCents - out.DiscountCents

	// The first-booking discount applies after the weekly discount,
	// compounding on the already-discounted total rather than
	// stacking additively.
	if stay.FirstBooking {
		out.FirstBookingDiscountCents = percentOf(discounted, firstBookingPercent)
	}
	final := discounted - out.FirstBookingDiscountCents

	out.CleaningFeeCents = cleaningFeeCents
	out.ServiceFeeCents = percentOf(final, serviceFeePercent)
	out.TotalCents = final + out.CleaningFeeCents + out.ServiceFeeCents

	// Average rate is derived from the pre-discount nightly total.
	// Display code depends on this exact base; do not switch it to
	// the discounted figure.
	out.AvgNightlyRateCents = divRound(out.NightlyTotalCents, int64(nights))

	return out, nil
}

// matchSeason returns the first rule whose same-year, non-wrapping
// [start, end] window contains the night's month and day.
func matchSeason(rules []SeasonalRule, night time.Time) (SeasonalRule, bool) {
	m, d := int(night.Month()), night.Day()
	for _, r := range rules {
		afterStart := m > r.StartMonth || (m == r.StartMonth && d >= r.StartDay)
		beforeEnd := m < r.EndMonth || (m == r.EndMonth && d <= r.EndDay)
		if afterStart && beforeEnd {
			return r, true
		}
	}
	return SeasonalRule{}, false
}

// mulRound multiplies cents by a factor, rounding half away from
// zero back to whole cents.
func mulRound(cents int64, factor float64) int64 {
	return int64(math.Round(float64(cents) * factor))
}

// percentOf returns pct percent of cents, rounded half away from
// zero.
func percentOf(cents int64, pct int) int64 {
	n := cents * int64(pct)
	if n < 0 {
		return (n - 50) / 100
	}
	return (n + 50) / 100
}

// divRound divides cents by n, rounding half away from zero. n must
// be > 0.
func divRound(cents, n int64) int64 {
	if cents < 0 {
		return (cents - n/2) / n
	}
	return (cents + n/2) / n
}
