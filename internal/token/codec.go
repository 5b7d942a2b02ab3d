// Package token issues and verifies the signed, short-lived session
// credentials handed to guests after a booking-code lookup. Tokens
// are stateless: validity is entirely determined by the HMAC
// signature and the expiry claim, nothing is persisted server-side
// and nothing can be revoked early.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleGuest is the only role a session token may carry. Staff
// access uses a separate bearer-token path and never flows through
// this codec.
const RoleGuest = "GUEST"

// ErrInvalid is returned for every verification failure: malformed
// segments, a bad signature, a wrong role or an expired token.
// Verification fails closed and deliberately does not say why.
var ErrInvalid = errors.New("invalid session token")

// Claims is the decoded content of a guest session token. It scopes
// the session to exactly one booking and carries nothing else.
type Claims struct {
	BookingID uint64
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies guest session tokens with HS256. The
// clock is injectable so expiry behaviour can be tested without
// sleeping.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a Codec. A nil now falls back to time.Now; tests
// pass a fixed clock.
func NewCodec(secret string, ttl time.Duration, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue mints a signed token scoped to the given booking. It
// returns the serialized token and its expiry time.
func (c *Codec) Issue(bookingID uint64) (string, time.Time, error) {
	iat := c.now().UTC()
	exp := iat.Add(c.ttl)
	claims := jwt.MapClaims{
		"bid":  bookingID,
		"role": RoleGuest,
		"iat":  iat.Unix(),
		"exp":  exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates a token. Expiry is strict (no leeway
// window) and the signature check uses the library's constant-time
// HMAC comparison. Any failure maps to ErrInvalid.
func (c *Codec) Verify(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalid
	}
	role, _ := mc["role"].(string)
	if role != RoleGuest {
		return Claims{}, ErrInvalid
	}
	bid, ok := mc["bid"].(float64)
	if !ok || bid <= 0 {
		return Claims{}, ErrInvalid
	}
	out := Claims{BookingID: uint64(bid), Role: role}
	if v, ok := mc["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(v), 0).UTC()
	}
	if v, ok := mc["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(v), 0).UTC()
	}
	return out, nil
}
