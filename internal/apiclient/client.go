// Package apiclient is a thin wrapper over the LUCT reporting API.
// It attaches the session credential to every call. It does not retry or cache.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luct-reporting/luct-bot/internal/metrics"
	"github.com/luct-reporting/luct-bot/internal/models"
)

// TokenSource yields the credential to attach; "" sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL string
	header  string
	hc      *http.Client
	tokens  TokenSource
}

// New builds a client for baseURL. A nil hc uses a fresh http.Client with no timeout.
func New(baseURL, header string, hc *http.Client, tokens TokenSource) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if header == "" {
		header = "x-auth-token"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  header,
		hc:      hc,
		tokens:  tokens,
	}
}

// do sends one request. endpoint is a low-cardinality name for metrics.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set(c.header, tok)
		}
	}

	t0 := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.ObserveAPI(endpoint, 0, time.Since(t0))
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.ObserveAPI(endpoint, resp.StatusCode, time.Since(t0))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return newStatusError(method, path, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Method: method, Path: path, Err: err}
	}
	return nil
}

func searchQuery(q string) url.Values {
	if q == "" {
		return nil
	}
	return url.Values{"q": {q}}
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}

// Auth

func (c *Client) Login(ctx context.Context, in models.Credentials) (string, error) {
	var out models.LoginResponse
	if err := c.do(ctx, "auth.login", http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("POST /auth/login: empty token in response")
	}
	return out.Token, nil
}

func (c *Client) Register(ctx context.Context, in models.Registration) (string, error) {
	var out models.MessageResponse
	if err := c.do(ctx, "auth.register", http.MethodPost, "/auth/register", nil, in, &out); err != nil {
		return "", err
	}
	return out.Text(), nil
}
