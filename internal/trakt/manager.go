package trakt

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"warpmc/internal/faults"
	"warpmc/internal/logging"
	"warpmc/internal/paths"
	"warpmc/internal/providers"
)

const (
	serviceName   = "trakt"
	tokenFileName = "trakt_tokens.json"

	defaultPollInterval  = 5 * time.Second
	defaultTokenLifetime = 24 * time.Hour
)

// DeviceSession describes an in-flight device authorization. Only the device
// code outlives the process; callers supply it back to Poll.
type DeviceSession struct {
	DeviceCode      string        `json:"device_code"`
	UserCode        string        `json:"user_code"`
	VerificationURL string        `json:"verification_url"`
	ExpiresAt       time.Time     `json:"expires_at"`
	Interval        time.Duration `json:"interval"`
}

// PollResult reports one poll round trip. When Authorized is false the caller
// should wait at least RetryAfter before the next Poll.
type PollResult struct {
	Authorized bool
	Token      *Token
	RetryAfter time.Duration
}

// AuthStatus is the credential state visible to status callers.
type AuthStatus string

const (
	StatusUnauthenticated AuthStatus = "unauthenticated"
	StatusAuthorized      AuthStatus = "authorized"
	StatusExpired         AuthStatus = "expired"
)

// Manager owns Token and DeviceAuthSession state for the configured provider.
type Manager struct {
	registry *providers.Registry
	store    TokenStore
	client   Client
	doer     HTTPDoer
	logger   *slog.Logger
	now      func() time.Time
}

// Option customises manager construction.
type Option func(*Manager)

// WithHTTPClient overrides the HTTP transport used for OAuth calls.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(m *Manager) {
		m.doer = doer
		m.client = nil
	}
}

// WithClient injects a prebuilt OAuth client.
func WithClient(client Client) Option {
	return func(m *Manager) {
		m.client = client
	}
}

// WithTokenStore injects a custom persistence layer.
func WithTokenStore(store TokenStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLogger attaches a structured logger. Token values are never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.NewComponentLogger(logger, "trakt")
	}
}

// WithNow overrides the clock (used in tests).
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager builds a credential manager persisting under the resolver's
// tokens directory.
func NewManager(registry *providers.Registry, resolver *paths.Resolver, opts ...Option) (*Manager, error) {
	tokensDir, err := resolver.Resolve(paths.KeyTokens)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		registry: registry,
		store:    NewFileTokenStore(filepath.Join(tokensDir, tokenFileName)),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start requests a device code from the provider and returns the session the
// user completes out of band.
func (m *Manager) Start(ctx context.Context) (DeviceSession, error) {
	client, err := m.ensureClient()
	if err != nil {
		return DeviceSession{}, err
	}

	resp, err := client.RequestDeviceCode(ctx)
	if err != nil {
		return DeviceSession{}, faults.Wrap(faults.ErrProviderUnavailable, "trakt", "auth start", "", err)
	}

	interval := time.Duration(resp.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}
	session := DeviceSession{
		DeviceCode:      resp.DeviceCode,
		UserCode:        resp.UserCode,
		VerificationURL: resp.VerificationURL,
		ExpiresAt:       m.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		Interval:        interval,
	}
	m.logger.Info("device code issued", logging.Args(
		logging.String("user_code", session.UserCode),
		logging.String("verification_url", session.VerificationURL),
		logging.Time("expires_at", session.ExpiresAt),
	)...)
	return session, nil
}

// Poll queries token status once. It never sleeps or retries; callers space
// repeated calls at least the advertised interval apart.
func (m *Manager) Poll(ctx context.Context, deviceCode string) (PollResult, error) {
	client, err := m.ensureClient()
	if err != nil {
		return PollResult{}, err
	}

	resp, status, err := client.PollDeviceToken(ctx, deviceCode)
	if err != nil {
		return PollResult{}, faults.Wrap(faults.ErrProviderUnavailable, "trakt", "auth poll", "", err)
	}

	switch status {
	case http.StatusOK:
		token := m.tokenFromResponse(resp)
		if err := m.persistToken(&token); err != nil {
			return PollResult{}, err
		}
		m.logger.Info("access token granted via device flow", logging.Args(
			logging.Time("expires_at", token.ExpiresAt),
			logging.String("scope", token.Scope),
		)...)
		return PollResult{Authorized: true, Token: &token}, nil
	case http.StatusBadRequest:
		return PollResult{RetryAfter: defaultPollInterval}, nil
	case http.StatusTooManyRequests:
		return PollResult{RetryAfter: 2 * defaultPollInterval}, nil
	case http.StatusGone:
		return PollResult{}, faults.Wrap(faults.ErrSessionExpired, "trakt", "auth poll", "device code expired", nil)
	case http.StatusTeapot:
		return PollResult{}, faults.Wrap(faults.ErrAuthorizationDenied, "trakt", "auth poll", "user denied authorization", nil)
	case http.StatusNotFound, http.StatusConflict:
		return PollResult{}, faults.Wrap(faults.ErrNotFound, "trakt", "auth poll", "unknown device code", nil)
	default:
		return PollResult{}, faults.Wrap(faults.ErrProviderUnavailable, "trakt", "auth poll",
			http.StatusText(status), nil)
	}
}

// Status reads the persisted token and classifies it without refreshing.
func (m *Manager) Status() (AuthStatus, *Token, error) {
	state, err := m.store.Load()
	if err != nil {
		return StatusUnauthenticated, nil, err
	}
	if state.Token == nil || state.Token.AccessToken == "" {
		return StatusUnauthenticated, nil, nil
	}
	if !state.Token.Valid(m.now()) {
		return StatusExpired, state.Token, nil
	}
	return StatusAuthorized, state.Token, nil
}

// AccessToken returns a currently valid access token for the HTTP-client
// boundary. Absent tokens fail ErrNotFound; expired ones fail
// ErrSessionExpired so callers refresh or re-authenticate explicitly.
func (m *Manager) AccessToken() (string, error) {
	status, token, err := m.Status()
	if err != nil {
		return "", err
	}
	switch status {
	case StatusAuthorized:
		return token.AccessToken, nil
	case StatusExpired:
		return "", faults.Wrap(faults.ErrSessionExpired, "trakt", "access token", "token expired", nil)
	default:
		return "", faults.Wrap(faults.ErrNotFound, "trakt", "access token", "no token; complete device authentication first", nil)
	}
}

// Refresh exchanges the stored refresh token for a new access token.
func (m *Manager) Refresh(ctx context.Context) (Token, error) {
	state, err := m.store.Load()
	if err != nil {
		return Token{}, err
	}
	if state.Token == nil || strings.TrimSpace(state.Token.RefreshToken) == "" {
		return Token{}, faults.Wrap(faults.ErrNotFound, "trakt", "refresh", "no refresh token available", nil)
	}

	client, err := m.ensureClient()
	if err != nil {
		return Token{}, err
	}
	resp, err := client.RefreshToken(ctx, state.Token.RefreshToken)
	if err != nil {
		return Token{}, faults.Wrap(faults.ErrProviderUnavailable, "trakt", "refresh", "", err)
	}

	token := m.tokenFromResponse(resp)
	if err := m.persistToken(&token); err != nil {
		return Token{}, err
	}
	m.logger.Info("access token refreshed", logging.Args(logging.Time("expires_at", token.ExpiresAt))...)
	return token, nil
}

// Clear deletes the persisted token unconditionally. Clearing an already
// empty state succeeds.
func (m *Manager) Clear() error {
	state, err := m.store.Load()
	if err != nil {
		return err
	}
	if state.Token == nil {
		return nil
	}
	state.Token = nil
	if err := m.store.Save(state); err != nil {
		return err
	}
	m.logger.Info("token cleared")
	return nil
}

func (m *Manager) tokenFromResponse(resp *tokenResponse) Token {
	created := m.now()
	if resp.CreatedAt > 0 {
		created = time.Unix(resp.CreatedAt, 0).UTC()
	}
	lifetime := time.Duration(resp.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	return Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		ExpiresAt:    created.Add(lifetime).UTC(),
	}
}

func (m *Manager) persistToken(token *Token) error {
	state, err := m.store.Load()
	if err != nil {
		return err
	}
	if state.InstallID == "" {
		state.InstallID = strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	state.Token = token
	return m.store.Save(state)
}

// ensureClient builds the OAuth client from the trakt service block on first
// use. Client credentials must be configured before any auth operation.
func (m *Manager) ensureClient() (Client, error) {
	if m.client != nil {
		return m.client, nil
	}

	svc, err := m.registry.Service(serviceName)
	if err != nil {
		if errors.Is(err, faults.ErrNotFound) {
			return nil, faults.Wrap(faults.ErrProviderUnavailable, "trakt", "configure",
				"trakt service is not defined in provider settings", nil)
		}
		return nil, err
	}
	if strings.TrimSpace(svc.ClientID) == "" || strings.TrimSpace(svc.ClientSecret) == "" {
		return nil, faults.Wrap(faults.ErrProviderUnavailable, "trakt", "configure",
			"client_id and client_secret must be configured", nil)
	}

	endpointPaths := map[string]string{}
	for name, spec := range svc.Endpoints {
		endpointPaths[name] = spec.Path
	}

	m.client = NewHTTPClient(svc.BaseURL, svc.ClientID, svc.ClientSecret, endpointPaths, m.doer)
	return m.client, nil
}
