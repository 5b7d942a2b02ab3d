package handler

import (
	"errors"   // for errors.As/Is comparisons
	"net/http" // HTTP status codes
	"strings"  // bearer prefix handling
	"time"     // parsing date fields

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/stay-reservation/internal/lifecycle"
	"github.com/iliyamo/stay-reservation/internal/middleware"
	"github.com/iliyamo/stay-reservation/internal/session"
)

// GuestHandler exposes the guest self-service surface: starting a
// session from a booking code and performing actions against the
// booking the session is scoped to. All error translation happens
// in the session service; this layer only maps error classes onto
// HTTP statuses.
type GuestHandler struct {
	Sessions *session.Service
}

// NewGuestHandler constructs a GuestHandler. The service must be non-nil.
func NewGuestHandler(s *session.Service) *GuestHandler {
	if s == nil {
		panic("nil service passed to NewGuestHandler")
	}
	return &GuestHandler{Sessions: s}
}

// actionNames maps URL action segments onto lifecycle actions. The
// URL uses dashes; the lifecycle package uses underscores.
var actionNames = map[string]lifecycle.Action{
	"cancel":          lifecycle.ActionCancel,
	"modify":          lifecycle.ActionModify,
	"retry-payment":   lifecycle.ActionRetryPayment,
	"upgrade-account": lifecycle.ActionUpgradeAccount,
}

type beginSessionReq struct {
	BookingCode string `json:"booking_code"`
}

type actionReq struct {
	CheckIn   string `json:"check_in,omitempty"`
	CheckOut  string `json:"check_out,omitempty"`
	NumGuests int    `json:"num_guests,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
}

// BeginSession handles POST /v1/guest/session. It exchanges a
// public booking code for a short-lived session token and a
// masked-email booking summary. Unknown codes are a plain 404 with
// no hint whether the code exists for another tenant.
func (h *GuestHandler) BeginSession(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown tenant"})
	}
	var req beginSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := h.Sessions.BeginSession(c.Request().Context(), tenantID, strings.TrimSpace(req.BookingCode))
	if err != nil {
		return writeSessionError(c, err)
	}
	return c.JSON(http.StatusOK, start)
}

// Action handles POST /v1/guest/:action. The bearer token scopes
// the request to one booking; the body carries action-specific
// fields. Modify and cancel responses include a refreshed price
// breakdown.
func (h *GuestHandler) Action(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown tenant"})
	}
	action, ok := actionNames[c.Param("action")]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown action"})
	}
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session required"})
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	var req actionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	payload, err := req.toPayload()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	result, err := h.Sessions.PerformAction(c.Request().Context(), tenantID, raw, action, payload)
	if err != nil {
		return writeSessionError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// toPayload parses the wire-format date strings. Empty dates stay
// zero; the session service decides whether they are required for
// the requested action.
func (r actionReq) toPayload() (session.ActionPayload, error) {
	p := session.ActionPayload{
		NumGuests: r.NumGuests,
		Email:     strings.TrimSpace(r.Email),
		Password:  r.Password,
	}
	var err error
	if r.CheckIn != "" {
		if p.CheckIn, err = time.Parse("2006-01-02", r.CheckIn); err != nil {
			return p, errors.New("check_in must be formatted YYYY-MM-DD")
		}
	}
	if r.CheckOut != "" {
		if p.CheckOut, err = time.Parse("2006-01-02", r.CheckOut); err != nil {
			return p, errors.New("check_out must be formatted YYYY-MM-DD")
		}
	}
	return p, nil
}

// writeSessionError maps session error classes to HTTP statuses:
// validation 400, auth 401, not-found 404, state conflict 409 and
// anything upstream a generic 500.
func writeSessionError(c echo.Context, err error) error {
	var ve *session.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Msg})
	}
	if errors.Is(err, session.ErrSessionInvalid) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session invalid or expired"})
	}
	if errors.Is(err, session.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	var sce *session.StateConflictError
	if errors.As(err, &sce) {
		return c.JSON(http.StatusConflict, echo.Map{"error": sce.Error(), "status": string(sce.Current)})
	}
	var ue *session.UpstreamError
	if errors.As(err, &ue) {
		c.Logger().Errorf("guest action failed: %v", ue)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
