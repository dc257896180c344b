package session

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

func newTestManager(t *testing.T, handler http.Handler) (*Manager, *api.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	mgr, err := NewManager(NewStore(t.TempDir()), zap.NewNop())
	require.NoError(t, err)
	client := api.NewClient(server.URL, mgr, zap.NewNop(), api.WithRetry(0, 0))
	mgr.Bind(client)
	return mgr, client, server
}

func TestManager_LoginStoresToken(t *testing.T) {
	var lastAuth atomic.Value
	mgr, client, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/user/login":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["username"] != "alice" || body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"access_token":"tok123"}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))

	require.NoError(t, mgr.Login(context.Background(), "alice", "secret"))
	assert.Equal(t, "tok123", mgr.Token())
	assert.True(t, mgr.Authenticated())

	// Subsequent dispatches carry the credential.
	_, err := client.Dispatch(context.Background(), http.MethodGet, api.EndpointChats, nil, api.Params{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", lastAuth.Load())

	// The token survives a fresh manager over the same store.
	again, err := NewManager(mgr.store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "tok123", again.Token())
}

func TestManager_LoginFailureLeavesNoState(t *testing.T) {
	mgr, _, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := mgr.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Empty(t, mgr.Token())

	persisted, err := mgr.store.Load()
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestManager_Logout(t *testing.T) {
	mgr, _, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok123"}`))
	}))
	require.NoError(t, mgr.Login(context.Background(), "alice", "secret"))

	mgr.Logout()
	assert.Empty(t, mgr.Token())
	persisted, err := mgr.store.Load()
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestManager_VerifyNegativeClearsToken(t *testing.T) {
	mgr, _, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/login" {
			w.Write([]byte(`{"access_token":"stale"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	require.NoError(t, mgr.Login(context.Background(), "alice", "secret"))

	ok, err := mgr.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, mgr.Token(), "rejected token is treated as absent")
}

func TestManager_VerifyWithoutToken(t *testing.T) {
	hits := 0
	mgr, _, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	ok, err := mgr.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, hits, "no token means no verification round-trip")
}

func TestManager_UnauthorizedFromAnyEndpoint(t *testing.T) {
	mgr, client, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/login" {
			w.Write([]byte(`{"access_token":"tok123"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	require.NoError(t, mgr.Login(context.Background(), "alice", "secret"))

	var transitions atomic.Int32
	mgr.SetOnUnauthorized(func() { transitions.Add(1) })

	// Any component's request hitting a 401 lands in the single handler.
	_, err := client.Dispatch(context.Background(), http.MethodGet, api.EndpointTokens, nil, api.Params{})
	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, mgr.Token())
	assert.Equal(t, int32(1), transitions.Load())

	// A second 401 with the credential already gone is a no-op.
	_, err = client.Dispatch(context.Background(), http.MethodGet, api.EndpointModels, nil, api.Params{})
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), transitions.Load(), "handler must collapse repeated 401s into one transition")
}

func TestManager_HandleUnauthorizedIdempotent(t *testing.T) {
	mgr, err := NewManager(NewStore(t.TempDir()), zap.NewNop())
	require.NoError(t, err)

	var fired int
	mgr.SetOnUnauthorized(func() { fired++ })

	mgr.HandleUnauthorized()
	assert.Zero(t, fired, "clearing an already-empty credential does nothing")
}
