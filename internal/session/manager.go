package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"freechat/internal/api"
)

// Manager is the sole writer of the token slot. It implements
// api.TokenSource; the gateway reads the credential through it on every
// dispatch.
type Manager struct {
	mu     sync.Mutex
	token  string
	store  *Store
	client *api.Client
	log    *zap.Logger

	onUnauthorized func()
}

// NewManager loads any persisted token and returns the manager.
func NewManager(store *Store, log *zap.Logger) (*Manager, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Manager{token: tok, store: store, log: log}, nil
}

// Bind wires the manager to the gateway: the client reads credentials from
// the manager, and every 401 the client sees lands in HandleUnauthorized.
func (m *Manager) Bind(c *api.Client) {
	m.client = c
	c.SetUnauthorizedHook(m.HandleUnauthorized)
}

// SetOnUnauthorized registers the callback fired once per
// authenticated-to-unauthenticated transition. The UI uses it to force
// navigation back to the login screen.
func (m *Manager) SetOnUnauthorized(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUnauthorized = fn
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Authenticated reports whether a token is currently held.
func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token. State changes only on success:
// the token is stored durably and becomes the gateway's credential.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	var out loginResponse
	err := m.client.DispatchJSON(ctx, http.MethodPost, api.EndpointLogin,
		credentials{Username: username, Password: password}, api.Params{}, &out)
	if err != nil {
		m.log.Warn("login failed", zap.String("username", username), zap.Error(err))
		return err
	}

	m.mu.Lock()
	m.token = out.AccessToken
	m.mu.Unlock()
	if err := m.store.Save(out.AccessToken); err != nil {
		m.log.Warn("token not persisted", zap.Error(err))
	}
	m.log.Info("logged in", zap.String("username", username))
	return nil
}

// Register creates a new account. It does not log the user in; the server
// hands out tokens only through the login endpoint.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	return m.client.DispatchJSON(ctx, http.MethodPost, api.EndpointRegister,
		credentials{Username: username, Email: email, Password: password}, api.Params{}, nil)
}

// Logout clears the token locally. It always succeeds.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	if err := m.store.Clear(); err != nil {
		m.log.Warn("token file not removed", zap.Error(err))
	}
	m.log.Info("logged out")
}

// Verify asks the server whether the held token is still good. A negative
// answer is treated identically to an absent token.
func (m *Manager) Verify(ctx context.Context) (bool, error) {
	if m.Token() == "" {
		return false, nil
	}
	_, err := m.client.Dispatch(ctx, http.MethodPost, api.EndpointVerify, nil, api.Params{})
	if err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HandleUnauthorized is the single code path for any 401 seen anywhere: it
// clears the credential and notifies the registered callback. Clearing an
// already-cleared credential is a no-op, so concurrent callers collapse
// into one logical transition.
func (m *Manager) HandleUnauthorized() {
	m.mu.Lock()
	if m.token == "" {
		m.mu.Unlock()
		return
	}
	m.token = ""
	cb := m.onUnauthorized
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.log.Warn("token file not removed", zap.Error(err))
	}
	m.log.Info("session invalidated by server")
	if cb != nil {
		cb()
	}
}
