package tokens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freechat/internal/api"
)

type noTokens struct{}

func (noTokens) Token() string { return "" }

func newTestLedger(t *testing.T, handler http.Handler) *Ledger {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.NewClient(server.URL, noTokens{}, zap.NewNop(), api.WithRetry(0, 0))
	return NewLedger(client, zap.NewNop())
}

func TestLedger_BalanceUnknownUntilFetched(t *testing.T) {
	l := NewLedger(nil, zap.NewNop())
	_, ok := l.Balance()
	assert.False(t, ok)
}

func TestLedger_FetchBalanceReplacesCache(t *testing.T) {
	balance := 100
	l := newTestLedger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"balance": balance})
	}))

	got, err := l.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, got)

	// The server figure wins outright; nothing is computed locally.
	balance = 37
	got, err = l.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 37, got)

	cached, ok := l.Balance()
	require.True(t, ok)
	assert.Equal(t, 37, cached)
}

func TestLedger_TopUpTakesServerFigure(t *testing.T) {
	var gotAmount int
	l := newTestLedger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotAmount = body["amount"]
		// Deliberately not amount-derived: the cache must mirror this
		// figure, not sum anything.
		json.NewEncoder(w).Encode(map[string]int{"balance": 999})
	}))

	got, err := l.TopUp(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 50, gotAmount)
	assert.Equal(t, 999, got)

	cached, ok := l.Balance()
	require.True(t, ok)
	assert.Equal(t, 999, cached)
}

func TestLedger_TopUpRejectsNonPositiveAmounts(t *testing.T) {
	var hits atomic.Int64
	l := newTestLedger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, amount := range []int{0, -5} {
		_, err := l.TopUp(context.Background(), amount)
		var verr *api.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "amount", verr.Field)
	}
	assert.Zero(t, hits.Load(), "invalid amounts are rejected before any request")
}

func TestLedger_FailedFetchKeepsCachedBalance(t *testing.T) {
	fail := false
	l := newTestLedger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"balance": 20})
	}))

	_, err := l.FetchBalance(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = l.FetchBalance(context.Background())
	require.Error(t, err)

	cached, ok := l.Balance()
	require.True(t, ok)
	assert.Equal(t, 20, cached, "a failed refresh leaves the last good figure in place")
}
