// Package tokens tracks the consumable token balance. The balance is
// strictly server-authoritative: every figure shown comes from a fresh
// read, never local arithmetic.
package tokens

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"freechat/internal/api"
)

// Ledger caches the last balance the server reported.
type Ledger struct {
	client *api.Client
	log    *zap.Logger

	mu      sync.Mutex
	balance int
	known   bool
}

// NewLedger returns a ledger with no balance known yet.
func NewLedger(client *api.Client, log *zap.Logger) *Ledger {
	return &Ledger{client: client, log: log}
}

type balanceResponse struct {
	Balance int `json:"balance"`
}

type topUpRequest struct {
	Amount int `json:"amount"`
}

// FetchBalance reads the current balance and replaces the cached value
// unconditionally. It must be re-invoked after every successful send: the
// debit per message is decided server-side and never disclosed in advance.
func (l *Ledger) FetchBalance(ctx context.Context) (int, error) {
	var out balanceResponse
	if err := l.client.DispatchJSON(ctx, http.MethodGet, api.EndpointTokens, nil, api.Params{}, &out); err != nil {
		return 0, err
	}
	l.setBalance(out.Balance)
	return out.Balance, nil
}

// TopUp credits the account. The amount must be a positive integer,
// checked before any network call. On success the cached balance is
// replaced by the server's figure, not summed locally.
func (l *Ledger) TopUp(ctx context.Context, amount int) (int, error) {
	if amount <= 0 {
		return 0, &api.ValidationError{Field: "amount", Reason: "must be a positive integer"}
	}
	var out balanceResponse
	err := l.client.DispatchJSON(ctx, http.MethodPost, api.EndpointTokens,
		topUpRequest{Amount: amount}, api.Params{}, &out)
	if err != nil {
		return 0, err
	}
	l.setBalance(out.Balance)
	l.log.Info("balance topped up", zap.Int("amount", amount), zap.Int("balance", out.Balance))
	return out.Balance, nil
}

// Balance returns the last server-reported balance; ok is false until the
// first successful fetch.
func (l *Ledger) Balance() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance, l.known
}

func (l *Ledger) setBalance(n int) {
	l.mu.Lock()
	l.balance = n
	l.known = true
	l.mu.Unlock()
}
