// Package upstream issues native provider requests over a tuned HTTP client.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"chat-gateway/internal/config"
	"chat-gateway/internal/models"
)

const userAgent = "chat-gateway/0.1"

// Error is a non-2xx upstream reply. Status and Body are forwarded to the
// caller unchanged.
type Error struct {
	Status      int
	ContentType string
	Body        []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// Client performs one attempt per call; retries are left to the caller.
type Client struct {
	http         *http.Client
	maxErrorBody int64
}

// New constructs a client from upstream configuration. The client carries no
// overall timeout because streams are bounded by the request context instead.
func New(cfg config.UpstreamConfig) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: cfg.KeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
	}

	return &Client{
		http:         &http.Client{Transport: transport},
		maxErrorBody: cfg.MaxErrorBodyBytes,
	}
}

// NewWithHTTPClient wraps an existing client. It is used by tests.
func NewWithHTTPClient(client *http.Client, maxErrorBody int64) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{http: client, maxErrorBody: maxErrorBody}
}

// Do sends the described request. A 2xx response is returned with its body
// open; the caller must close it. Any other status is returned as *Error
// with the body already read and closed.
func (c *Client) Do(ctx context.Context, native models.NativeRequest) (*http.Response, error) {
	var body io.Reader
	if native.Body != nil {
		body = bytes.NewReader(native.Body)
	}

	req, err := http.NewRequestWithContext(ctx, native.Method, native.URL, body)
	if err != nil {
		return nil, fmt.Errorf("construct upstream request: %w", err)
	}
	for key, values := range native.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", redact(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, c.maxErrorBody))
		if readErr != nil {
			return nil, fmt.Errorf("read upstream error body (status %d): %w", resp.StatusCode, readErr)
		}
		return nil, &Error{
			Status:      resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        data,
		}
	}
	return resp, nil
}

// ReadAll reads a successful response body up to limit bytes and closes it.
func ReadAll(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	return data, nil
}

// redact drops the request URL from transport errors, since some providers
// carry the API key as a query parameter.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
