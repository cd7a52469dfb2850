// Package client is a typed HTTP client for the skillchain API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	balanceshandler "skillchain/internal/balances/handler"
	endorsementhandler "skillchain/internal/endorsement/handler"
	"skillchain/internal/profile"
	registryhandler "skillchain/internal/registry/handler"
	id "skillchain/pkg/domain"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Description)
	}
	return fmt.Sprintf("%s (%d)", e.Code, e.Status)
}

// Client calls the ledger HTTP API. Calls that change state need a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Mint(ctx context.Context, req registryhandler.MintRequest) (*registryhandler.MintResponse, error) {
	var out registryhandler.MintResponse
	return &out, c.do(ctx, http.MethodPost, "/credentials", req, &out)
}

func (c *Client) Verify(ctx context.Context, credentialID id.CredentialID) (*registryhandler.VerifyResponse, error) {
	var out registryhandler.VerifyResponse
	return &out, c.do(ctx, http.MethodPost, credentialPath(credentialID, "verify"), nil, &out)
}

func (c *Client) Endorse(ctx context.Context, credentialID id.CredentialID, stake id.Balance) (*endorsementhandler.EndorseResponse, error) {
	var out endorsementhandler.EndorseResponse
	req := endorsementhandler.EndorseRequest{Stake: json.Number(stake.String())}
	return &out, c.do(ctx, http.MethodPost, credentialPath(credentialID, "endorsements"), req, &out)
}

func (c *Client) Credential(ctx context.Context, credentialID id.CredentialID) (*registryhandler.CredentialResponse, error) {
	var out registryhandler.CredentialResponse
	return &out, c.do(ctx, http.MethodGet, credentialPath(credentialID, ""), nil, &out)
}

func (c *Client) NextCredentialID(ctx context.Context) (id.CredentialID, error) {
	var out registryhandler.NextIDResponse
	err := c.do(ctx, http.MethodGet, "/credentials/next-id", nil, &out)
	return out.NextCredentialID, err
}

func (c *Client) AccountCredentials(ctx context.Context, account id.AccountID) ([]id.CredentialID, error) {
	var out registryhandler.AccountCredentialsResponse
	err := c.do(ctx, http.MethodGet, accountPath(account, "credentials"), nil, &out)
	return out.Credentials, err
}

func (c *Client) Endorsements(ctx context.Context, credentialID id.CredentialID) (*endorsementhandler.EndorsementsResponse, error) {
	var out endorsementhandler.EndorsementsResponse
	return &out, c.do(ctx, http.MethodGet, credentialPath(credentialID, "endorsements"), nil, &out)
}

func (c *Client) Score(ctx context.Context, credentialID id.CredentialID) (id.Balance, error) {
	var out endorsementhandler.ScoreResponse
	err := c.do(ctx, http.MethodGet, credentialPath(credentialID, "score"), nil, &out)
	return out.Score, err
}

func (c *Client) Balance(ctx context.Context, account id.AccountID) (*balanceshandler.BalanceResponse, error) {
	var out balanceshandler.BalanceResponse
	return &out, c.do(ctx, http.MethodGet, accountPath(account, "balance"), nil, &out)
}

func (c *Client) Profile(ctx context.Context, account id.AccountID) (*profile.Profile, error) {
	var out profile.Profile
	return &out, c.do(ctx, http.MethodGet, accountPath(account, "profile"), nil, &out)
}

func credentialPath(credentialID id.CredentialID, suffix string) string {
	p := "/credentials/" + strconv.FormatUint(uint64(credentialID), 10)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func accountPath(account id.AccountID, suffix string) string {
	return "/accounts/" + url.PathEscape(account.String()) + "/" + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
