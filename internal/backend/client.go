// internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"skycover-agent/internal/domain/policy"
	"skycover-agent/internal/domain/wallet"
	xerrors "skycover-agent/internal/pkg/errors"
)

// TokenSource yields the current bearer token, or "" when no session exists.
// The session manager owns the credential; the client only borrows it.
type TokenSource func() string

// Client talks to the platform backend. Transport failures are wrapped in
// xerrors.ErrNetworkTransient so callers can apply fail-open policies;
// non-2xx responses carry the response body text.
type Client struct {
	baseURL string
	token   TokenSource
	http    *http.Client
}

func NewClient(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ValidateToken calls GET /tokenvalid/. nil means the server confirmed the
// token; ErrAuthExpired means it explicitly rejected it; ErrNetworkTransient
// means the server could not be reached and the caller decides the policy.
func (c *Client) ValidateToken(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/tokenvalid/", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrNetworkTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("%w: server returned %d", xerrors.ErrAuthExpired, resp.StatusCode)
}

// UpdateWalletAddress calls PUT /user/wallet. Malformed addresses are
// rejected locally; non-2xx is a hard failure carrying the response body.
func (c *Client) UpdateWalletAddress(ctx context.Context, address string) error {
	if !wallet.ValidAddress(address) {
		return fmt.Errorf("%w: invalid wallet address %q", xerrors.ErrInvalidInput, address)
	}

	body, err := json.Marshal(wallet.UpdateRequest{WalletAddress: address})
	if err != nil {
		return fmt.Errorf("failed to marshal wallet update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/user/wallet", bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrNetworkTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("failed to update wallet address: %d %s - %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), bytes.TrimSpace(text))
	}
	return nil
}

// PolicyTemplates calls GET /policy-templates.
func (c *Client) PolicyTemplates(ctx context.Context) ([]policy.Template, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/policy-templates", nil)
	if err != nil {
		return nil, err
	}

	var templates []policy.Template
	if err := c.doJSON(req, &templates); err != nil {
		return nil, fmt.Errorf("failed to fetch policy templates: %w", err)
	}
	return templates, nil
}

// CreatePolicy calls POST /policies and returns the created record.
func (c *Client) CreatePolicy(ctx context.Context, create *policy.CreatePolicyRequest) (*policy.InsurancePolicy, error) {
	body, err := json.Marshal(create)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy record: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/policies", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var created policy.InsurancePolicy
	if err := c.doJSON(req, &created); err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrBackendRecording, err)
	}
	return &created, nil
}

// UserPolicies calls GET /policies. Dates normalize through WireDate
// regardless of which serialization the backend used.
func (c *Client) UserPolicies(ctx context.Context) ([]policy.InsurancePolicy, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/policies", nil)
	if err != nil {
		return nil, err
	}

	var policies []policy.InsurancePolicy
	if err := c.doJSON(req, &policies); err != nil {
		return nil, fmt.Errorf("failed to fetch policies: %w", err)
	}
	return policies, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrNetworkTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(text))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
