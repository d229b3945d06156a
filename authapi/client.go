package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Backend route constants, relative to the API base URL
const (
	RouteLogin    = "/empleados/login"
	RouteRegister = "/empleados/register"
	RouteLogout   = "/logout"
	RouteRefresh  = "/refresh"

	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 * 1024
)

// API is the contract the session manager needs from the backend
type API interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*LoginResponse, error)
}

// validator is implemented by responses with required fields
type validator interface {
	validate() error
}

// Client talks JSON over HTTP to the authentication backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	newID      func() string
}

var _ API = (*Client)(nil)

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client (transport, timeout)
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the transport timeout. Nothing else in the client enforces one.
// It applies to a copy of the http.Client, the one passed to WithHTTPClient is left alone.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRequestIDFunc sets the request ID generator (primarily for testing)
func WithRequestIDFunc(newID func() string) ClientOption {
	return func(c *Client) {
		c.newID = newID
	}
}

// NewClient creates a backend client for the given base URL (e.g. "http://localhost:8080/api/v1")
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("[authapi.NewClient] base URL is required")
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.timeout > 0 {
		httpClient := *c.httpClient
		httpClient.Timeout = c.timeout
		c.httpClient = &httpClient
	}
	return c, nil
}

// BaseURL returns the API base URL without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, RouteLogin, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.post(ctx, RouteRegister, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout notifies the backend. The response body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, RouteLogout, token, struct{}{}, nil)
}

// Refresh asks the backend for a new access token. The request has an empty body,
// the current token (if any) is sent as the bearer.
func (c *Client) Refresh(ctx context.Context, token string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, RouteRefresh, token, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends body as JSON and decodes a 2xx response into out (when out is non-nil).
// Every failure is returned as a classified *Error.
func (c *Client) post(ctx context.Context, route, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewClientError(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(payload))
	if err != nil {
		return NewClientError(err)
	}
	requestID := c.newID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("route", route).Str("request_id", requestID).Msg("Backend request failed")
		return NewClientError(err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("route", route).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(start)).
		Msg("Backend request")

	if err := CheckResponse(resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Debug().Err(err).Str("route", route).Str("request_id", requestID).Msg("Undecodable backend response")
		return UnreadableResponse(resp)
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			log.Debug().Err(err).Str("route", route).Str("request_id", requestID).Msg("Incomplete backend response")
			return UnreadableResponse(resp)
		}
	}
	return nil
}
