package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stay-reservation/internal/middleware"
	"github.com/iliyamo/stay-reservation/internal/pricing"
	"github.com/iliyamo/stay-reservation/internal/repository"
)

// QuoteHandler serves the public price preview: the itemized
// breakdown a guest sees while picking dates, before any booking
// exists. Responses are cacheable; the computation itself is pure.
type QuoteHandler struct {
	Properties *repository.PropertyRepo
}

// NewQuoteHandler constructs a QuoteHandler. The repo must be non-nil.
func NewQuoteHandler(p *repository.PropertyRepo) *QuoteHandler {
	if p == nil {
		panic("nil repository passed to NewQuoteHandler")
	}
	return &QuoteHandler{Properties: p}
}

// GetQuote handles GET /v1/properties/:id/quote. Missing or equal
// dates are not an error: they produce the all-zero breakdown the
// date-picker renders before a range is chosen.
func (h *QuoteHandler) GetQuote(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown tenant"})
	}
	propertyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || propertyID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	ctx := c.Request().Context()
	// Confirm the property belongs to this tenant before pricing it.
	if _, err := h.Properties.FindByID(ctx, tenantID, propertyID); err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var checkIn, checkOut time.Time
	if v := c.QueryParam("check_in"); v != "" {
		if checkIn, err = time.Parse("2006-01-02", v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in must be formatted YYYY-MM-DD"})
		}
	}
	if v := c.QueryParam("check_out"); v != "" {
		if checkOut, err = time.Parse("2006-01-02", v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be formatted YYYY-MM-DD"})
		}
	}
	// Dates come as a pair; half a range cannot be priced.
	if checkIn.IsZero() != checkOut.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in and check_out must be supplied together"})
	}
	guests := 1
	if v := c.QueryParam("guests"); v != "" {
		if guests, err = strconv.Atoi(v); err != nil || guests < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be a non-negative integer"})
		}
	}
	firstBooking := c.QueryParam("first_booking") == "true"

	cfg, err := h.Properties.PricingConfigByProperty(ctx, propertyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load pricing"})
	}
	occ, err := h.Properties.OccupancyRatePercent(ctx, propertyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to snapshot occupancy"})
	}

	stay := pricing.Stay{
		CheckIn:              checkIn,
		CheckOut:             checkOut,
		Guests:               guests,
		OccupancyRatePercent: occ,
		FirstBooking:         firstBooking,
	}
	breakdown, err := pricing.Quote(cfg, stay, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute price"})
	}
	return c.JSON(http.StatusOK, echo.Map{"price_breakdown": breakdown})
}
