// Package credits mirrors the user's prepaid credit balance during one
// orchestration session and broadcasts balance changes to interested
// consumers. The server remains authoritative; the mirror only tracks
// optimistic deductions so the UI can show a running balance without a
// round trip after every call.
package credits

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Ledger is the session-local credit balance mirror. A ledger belongs to
// exactly one orchestration session; only one session runs at a time, so
// the ledger is not synchronized.
type Ledger struct {
	balance float64
}

// NewLedger creates a mirror seeded with the server-reported balance.
func NewLedger(balance float64) *Ledger {
	if balance < 0 {
		balance = 0
	}
	return &Ledger{balance: balance}
}

// Balance returns the current mirrored balance.
func (l *Ledger) Balance() float64 {
	return l.balance
}

// Deduct subtracts a confirmed (or, for background jobs, estimated)
// deduction from the mirror, clamping at zero, and returns the new balance.
func (l *Ledger) Deduct(amount float64) float64 {
	if amount <= 0 {
		return l.balance
	}
	l.balance -= amount
	if l.balance < 0 {
		l.balance = 0
	}
	log.Debug().Float64("deducted", amount).Float64("balance", l.balance).Msg("credit mirror updated")
	return l.balance
}

// Sufficient reports whether the mirrored balance covers the estimate.
// Advisory only: the check is not re-verified server-side before each call.
func (l *Ledger) Sufficient(estimate float64) bool {
	return l.balance >= estimate
}

// CreditsUpdated is broadcast after a session deducts credits, so views
// holding their own balance copy know to refetch the authoritative value.
type CreditsUpdated struct {
	SessionID string  `json:"sessionId"`
	StoreID   string  `json:"storeId"`
	Deducted  float64 `json:"deducted"`
	Remaining float64 `json:"remaining"`
}

// Broadcaster publishes CreditsUpdated events. Passing it into the
// orchestrator makes balance-refresh an explicit dependency instead of
// ambient global signaling.
type Broadcaster interface {
	BroadcastCreditsUpdated(ctx context.Context, event CreditsUpdated) error
}

// Fanout is an in-process Broadcaster delivering events to registered
// subscribers in registration order.
type Fanout struct {
	subs []func(CreditsUpdated)
}

// Subscribe registers a subscriber for future events.
func (f *Fanout) Subscribe(fn func(CreditsUpdated)) {
	f.subs = append(f.subs, fn)
}

// BroadcastCreditsUpdated delivers the event to every subscriber.
func (f *Fanout) BroadcastCreditsUpdated(_ context.Context, event CreditsUpdated) error {
	for _, fn := range f.subs {
		fn(event)
	}
	return nil
}
