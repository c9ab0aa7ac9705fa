// Package harness drives a remote ledger node through conformance test
// vectors: it routes each vector to the right node operation, compares
// the observed results against the vector's expectations and folds the
// per-vector verdicts into an overall outcome.
package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the transport capability the dispatcher runs on. Paths are
// relative to the node's base URL; out, when non-nil, receives the
// decoded JSON response body.
type Client interface {
	PostJSON(path string, payload any, out any) error
	GetJSON(path string, out any) error
}

// StatusError is a non-2xx response from the node.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// HTTPClient is the production Client: synchronous request/response
// against a single base URL with a fixed timeout and no retries.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

const DefaultTimeout = 60 * time.Second

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) PostJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.resolve(path), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return readStatusError(resp)
	}
	return decodeBody(resp.Body, out)
}

func (c *HTTPClient) GetJSON(path string, out any) error {
	resp, err := c.http.Get(c.resolve(path))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return readStatusError(resp)
	}
	return decodeBody(resp.Body, out)
}

// decodeBody tolerates empty response bodies: some endpoints answer
// 200 with no content.
func decodeBody(r io.Reader, out any) error {
	if out == nil {
		return nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}

// resolve keeps absolute URLs intact so per-vector rpc_url overrides
// can point at another endpoint entirely.
func (c *HTTPClient) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func readStatusError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// WaitForHealth polls GET /health until the node answers 2xx or the
// attempts run out. Nodes started alongside the harness need a moment
// before they accept vector traffic.
func WaitForHealth(c Client, attempts int, delay time.Duration) error {
	if attempts <= 0 {
		attempts = 20
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = c.GetJSON("/health", nil); err == nil {
			return nil
		}
		time.Sleep(delay)
	}
	return fmt.Errorf("health check timeout: %w", err)
}
