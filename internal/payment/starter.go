// Package payment creates payment-session references for payment
// retries. Actual capture happens in an external processor; this
// package only mints the opaque reference the processor is handed.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"

	"github.com/iliyamo/stay-reservation/internal/model"
)

// SessionStarter issues payment-session references. It satisfies
// session.PaymentStarter.
type SessionStarter struct{}

// NewSessionStarter returns a SessionStarter.
func NewSessionStarter() *SessionStarter { return &SessionStarter{} }

// Start mints an opaque payment reference for the booking. The
// reference is random so it carries no booking information; the
// external processor resolves it through its own channel.
func (p *SessionStarter) Start(_ context.Context, b *model.Booking) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	ref := "pay_" + hex.EncodeToString(buf)
	log.Printf("payment: session %s opened for booking %d (%d cents)", ref, b.ID, b.TotalCents)
	return ref, nil
}
