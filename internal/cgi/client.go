package cgi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/errors"
	"github.com/turtacn/Tether/pkg/logger"
)

// Alerter shows a blocking failure notice to the operator.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a plain function to Alerter.
type AlertFunc func(message string)

func (f AlertFunc) Alert(message string) { f(message) }

// Client issues the one-shot /cgi requests of a session. Every request
// carries the session key header; a non-2xx answer alerts the operator and
// is returned as an error. Requests are never retried.
type Client struct {
	baseURL string
	prefix  string
	http    *http.Client
	alerter Alerter
	// fallback alert text when a call names none
	defaultFailure string

	mu         sync.RWMutex
	sessionKey string
}

type Options struct {
	BaseURL        string
	Prefix         string
	Timeout        time.Duration
	Alerter        Alerter
	DefaultFailure string
}

func New(opts Options) *Client {
	if opts.Prefix == "" {
		opts.Prefix = consts.DefaultCGIPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = consts.DefaultRequestTimeout
	}
	if opts.Alerter == nil {
		opts.Alerter = AlertFunc(func(string) {})
	}
	return &Client{
		baseURL:        opts.BaseURL,
		prefix:         opts.Prefix,
		http:           &http.Client{Timeout: opts.Timeout},
		alerter:        opts.Alerter,
		defaultFailure: opts.DefaultFailure,
	}
}

// SetSessionKey binds the client to the session identity.
func (c *Client) SetSessionKey(key string) {
	c.mu.Lock()
	c.sessionKey = key
	c.mu.Unlock()
}

func (c *Client) SessionKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionKey
}

// Get issues GET <prefix><path> and decodes the JSON answer into out, if
// out is non-nil. failure overrides the default alert text.
func (c *Client) Get(ctx context.Context, path string, out any, failure string) error {
	return c.do(ctx, http.MethodGet, path, nil, out, failure)
}

// PostJSON encodes in (when non-nil) as the request body.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any, failure string) error {
	return c.do(ctx, http.MethodPost, path, in, out, failure)
}

func (c *Client) Delete(ctx context.Context, path string, out any, failure string) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, failure)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, failure string) error {
	op := "cgi." + method + " " + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.New(errors.ErrCodeRequestFailed, op, "encode body", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.prefix+path, body)
	if err != nil {
		return errors.New(errors.ErrCodeRequestFailed, op, "build request", err)
	}
	req.Header.Set(consts.SessionKeyHeader, c.SessionKey())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.New(errors.ErrCodeRequestFailed, op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Log.Warn("CGI request rejected", "method", method, "path", path, "status", resp.StatusCode)
		c.alert(failure)
		return errors.New(errors.ErrCodeBadStatus, op, fmt.Sprintf("status code is %d", resp.StatusCode), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.New(errors.ErrCodeRequestFailed, op, "decode response", err)
	}
	return nil
}

func (c *Client) alert(failure string) {
	if failure == "" {
		failure = c.defaultFailure
	}
	c.alerter.Alert(failure)
}

// Personal.AI order the ending
