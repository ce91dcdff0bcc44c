package trakt

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Token is the persisted OAuth credential. A token is valid iff it is present
// and the current time is before ExpiresAt; expired tokens are never used
// silently.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the token can still be presented upstream.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// authState is the on-disk auth record. The install identifier is generated
// once and survives token clears so the provider sees a stable client.
type authState struct {
	InstallID string `json:"install_id,omitempty"`
	Token     *Token `json:"token,omitempty"`
}

// TokenStore abstracts persistence for auth state.
type TokenStore interface {
	Load() (authState, error)
	Save(authState) error
}

// FileTokenStore writes auth state to a JSON file with restricted permissions.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore builds a FileTokenStore rooted at the provided path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads auth state from disk. A missing file resolves to an empty state.
func (s *FileTokenStore) Load() (authState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return authState{}, nil
		}
		return authState{}, fmt.Errorf("read auth state: %w", err)
	}

	var state authState
	if err := json.Unmarshal(data, &state); err != nil {
		return authState{}, fmt.Errorf("decode auth state: %w", err)
	}
	return state, nil
}

// Save persists auth state atomically with owner-only permissions.
func (s *FileTokenStore) Save(state authState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure auth state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write auth state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace auth state: %w", err)
	}
	return nil
}
