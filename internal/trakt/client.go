package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Endpoint names looked up in the trakt service block. Absent entries fall
// back to the documented Trakt paths.
const (
	endpointDeviceCode  = "device_code"
	endpointDeviceToken = "device_token"
	endpointRefresh     = "token_refresh"

	defaultDeviceCodePath  = "/oauth/device/code"
	defaultDeviceTokenPath = "/oauth/device/token"
	defaultRefreshPath     = "/oauth/token"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client handles the OAuth HTTP exchanges with Trakt.
type Client interface {
	RequestDeviceCode(ctx context.Context) (*deviceCodeResponse, error)
	PollDeviceToken(ctx context.Context, deviceCode string) (*tokenResponse, int, error)
	RefreshToken(ctx context.Context, refreshToken string) (*tokenResponse, error)
}

type httpClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	paths        map[string]string
	doer         HTTPDoer
}

// NewHTTPClient builds the default OAuth client. The underlying transport is
// a plain http.Client: Trakt forbids proxy usage for the device flow, so the
// shared proxy configuration is never consulted here.
func NewHTTPClient(baseURL, clientID, clientSecret string, endpointPaths map[string]string, doer HTTPDoer) Client {
	if doer == nil {
		doer = &http.Client{Timeout: 15 * time.Second}
	}
	return &httpClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		paths:        endpointPaths,
		doer:         doer,
	}
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	CreatedAt    int64  `json:"created_at"`
}

func (c *httpClient) RequestDeviceCode(ctx context.Context) (*deviceCodeResponse, error) {
	body := map[string]string{"client_id": c.clientID}
	var resp deviceCodeResponse
	status, err := c.post(ctx, c.path(endpointDeviceCode, defaultDeviceCodePath), body, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("device code request failed with status %d", status)
	}
	if resp.DeviceCode == "" || resp.UserCode == "" {
		return nil, fmt.Errorf("device code response missing codes")
	}
	return &resp, nil
}

// PollDeviceToken performs one poll round trip. The HTTP status is returned
// alongside the decoded body so the manager can map the terminal states.
func (c *httpClient) PollDeviceToken(ctx context.Context, deviceCode string) (*tokenResponse, int, error) {
	body := map[string]string{
		"code":          deviceCode,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}
	var resp tokenResponse
	status, err := c.post(ctx, c.path(endpointDeviceToken, defaultDeviceTokenPath), body, &resp)
	if err != nil {
		return nil, 0, err
	}
	if status == http.StatusOK {
		return &resp, status, nil
	}
	return nil, status, nil
}

func (c *httpClient) RefreshToken(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	body := map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}
	var resp tokenResponse
	status, err := c.post(ctx, c.path(endpointRefresh, defaultRefreshPath), body, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("token refresh failed with status %d", status)
	}
	return &resp, nil
}

func (c *httpClient) path(name, fallback string) string {
	if p, ok := c.paths[name]; ok && strings.TrimSpace(p) != "" {
		return "/" + strings.TrimLeft(p, "/")
	}
	return fallback
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusOK && out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
