// Package session owns the bearer token lifecycle: durable storage,
// login/logout, and the single unauthorized-response handler.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Store persists the access token across restarts as a small JSON state
// file under the state directory.
type Store struct {
	path string
}

type tokenFile struct {
	AccessToken string `json:"access_token"`
}

// NewStore returns a store rooted at stateDir.
func NewStore(stateDir string) *Store {
	return &Store{path: filepath.Join(stateDir, "auth", "token.json")}
}

// Load reads the persisted token. A missing file is an empty session, not
// an error.
func (s *Store) Load() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "read token file")
	}
	var tf tokenFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return "", errors.Wrap(err, "parse token file")
	}
	return tf.AccessToken, nil
}

// Save writes the token durably.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create auth dir")
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: token}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, append(b, '\n'), 0o600); err != nil {
		return errors.Wrap(err, "write token file")
	}
	return nil
}

// Clear removes the persisted token. Clearing an absent token is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove token file")
	}
	return nil
}
