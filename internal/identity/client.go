package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/deanwaring-hub/voicecraft/internal/config"
)

// Provider defines the operations the hosted identity provider exposes.
type Provider interface {
	SignUp(ctx context.Context, email, password string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Authenticate(ctx context.Context, username, password string) (*TokenSet, error)
	SignOut(ctx context.Context, accessToken string) error
	ExchangeForStorageCredentials(ctx context.Context, idToken string) (*StorageCredentials, error)
}

// TokenSet is the credential bundle returned by a successful authentication.
type TokenSet struct {
	IDToken      string `json:"idToken"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
}

// Expiry converts ExpiresIn into an absolute deadline.
func (t *TokenSet) Expiry(now time.Time) time.Time {
	if t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// StorageCredentials are short-lived credentials scoped to the identity pool,
// valid only for writing uploads to the object store.
type StorageCredentials struct {
	AccessKeyID     string     `json:"accessKeyId"`
	SecretAccessKey string     `json:"secretAccessKey"`
	SessionToken    string     `json:"sessionToken"`
	Expiration      *time.Time `json:"expiration,omitempty"`
}

// Client implements Provider against the hosted identity service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	poolID     string
}

// NewClient creates a new identity provider client
func NewClient(cfg *config.IdentityConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  cfg.BaseURL,
		clientID: cfg.ClientID,
		poolID:   cfg.IdentityPoolID,
	}
}

// SignUp registers a new account. The provider sends a confirmation code to
// the given email.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	req := map[string]string{
		"clientId": c.clientID,
		"email":    email,
		"password": password,
	}
	return c.post(ctx, "/signup", req, nil, "")
}

// ConfirmSignUp completes registration with the emailed code.
func (c *Client) ConfirmSignUp(ctx context.Context, email, code string) error {
	req := map[string]string{
		"clientId": c.clientID,
		"email":    email,
		"code":     code,
	}
	return c.post(ctx, "/confirm", req, nil, "")
}

// ResendCode requests a fresh confirmation code.
func (c *Client) ResendCode(ctx context.Context, email string) error {
	req := map[string]string{
		"clientId": c.clientID,
		"email":    email,
	}
	return c.post(ctx, "/resend-code", req, nil, "")
}

// Authenticate exchanges username/password for a token set.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*TokenSet, error) {
	req := map[string]string{
		"clientId": c.clientID,
		"username": username,
		"password": password,
	}
	var tokens TokenSet
	if err := c.post(ctx, "/auth", req, &tokens, ""); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// SignOut invalidates the session server-side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/signout", map[string]string{}, nil, accessToken)
}

// ExchangeForStorageCredentials trades the identity token for short-lived
// storage-write credentials scoped to the identity pool.
func (c *Client) ExchangeForStorageCredentials(ctx context.Context, idToken string) (*StorageCredentials, error) {
	req := map[string]string{
		"identityPoolId": c.poolID,
		"idToken":        idToken,
	}
	var creds StorageCredentials
	if err := c.post(ctx, "/credentials", req, &creds, ""); err != nil {
		return nil, err
	}
	return &creds, nil
}

// post sends a POST request with JSON body and parses the JSON response.
func (c *Client) post(ctx context.Context, endpoint string, body interface{}, result interface{}, bearer string) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	log.Printf("[Identity] → POST %s", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Identity] ✗ POST %s — request failed: %v", req.URL.String(), err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[Identity] ← %d POST %s", resp.StatusCode, req.URL.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var pe ProviderError
		if err := json.Unmarshal(respBody, &pe); err == nil && pe.Code != "" {
			return &pe
		}
		return fmt.Errorf("identity provider error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
