// Package api is the request gateway: it builds authenticated HTTP calls
// from path templates and maps failures onto a small error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenSource yields the current bearer token, or "" when the session is
// unauthenticated. The session manager is the only writer behind it.
type TokenSource interface {
	Token() string
}

// Params carries the named URL placeholders and the query string for a
// single dispatch.
type Params struct {
	URL   map[string]string
	Query url.Values
}

// Response is a settled 2xx response.
type Response struct {
	Status int
	Body   []byte
}

// Client dispatches requests against a single base address. Credentials
// are read per-request from the TokenSource, never stored on the client,
// so independent sessions can run side by side.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	log        *zap.Logger

	retryMax     uint64
	retryBackoff time.Duration

	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetry bounds the transport-failure retry loop. Zero disables retry.
func WithRetry(max uint64, initial time.Duration) Option {
	return func(c *Client) {
		c.retryMax = max
		if initial > 0 {
			c.retryBackoff = initial
		}
	}
}

// NewClient builds a gateway for the given base address.
func NewClient(baseURL string, tokens TokenSource, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokens:       tokens,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		log:          log,
		retryMax:     2,
		retryBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetUnauthorizedHook registers the single routine invoked whenever any
// dispatched request settles with status 401. The hook must be idempotent.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// Dispatch resolves the endpoint template, attaches the bearer credential
// when one is held, and issues the call. body is JSON-encoded when non-nil.
//
// Transport failures are retried with bounded exponential backoff; server
// and auth failures are returned as-is on the first settled response.
func (c *Client) Dispatch(ctx context.Context, method, template string, body any, p Params) (*Response, error) {
	path, err := ResolveTemplate(template, p.URL)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	full := c.baseURL + path
	if len(p.Query) > 0 {
		full += "?" + p.Query.Encode()
	}

	reqID := uuid.NewString()
	c.log.Debug("dispatching request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID))

	var resp *Response
	operation := func() error {
		var opErr error
		resp, opErr = c.once(ctx, method, full, payload)
		if opErr == nil {
			return nil
		}
		var te *TransportError
		if errors.As(opErr, &te) {
			return opErr
		}
		return backoff.Permanent(opErr)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(c.retryBackoff),
		), c.retryMax),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		c.log.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return nil, err
	}

	c.log.Debug("request settled",
		zap.String("request_id", reqID),
		zap.Int("status", resp.Status))
	return resp, nil
}

// DispatchJSON dispatches and decodes the response body into out when out
// is non-nil.
func (c *Client) DispatchJSON(ctx context.Context, method, template string, body any, p Params, out any) error {
	resp, err := c.Dispatch(ctx, method, template, body, p)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Body, out)
}

func (c *Client) once(ctx context.Context, method, fullURL string, payload []byte) (*Response, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Op: method + " " + fullURL, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}

	if httpResp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, &AuthError{Detail: serverDetail(raw)}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &ServerError{Status: httpResp.StatusCode, Detail: serverDetail(raw)}
	}

	return &Response{Status: httpResp.StatusCode, Body: raw}, nil
}

// serverDetail pulls the best available message out of an error body.
func serverDetail(raw []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Detail
}
