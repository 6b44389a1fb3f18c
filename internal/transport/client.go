// Package transport is the HTTP layer shared by the Tower resource model.
// It knows nothing about resources; it performs authenticated requests and
// hands back the response body.
package transport

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rflorenc/tower-client/internal/models"
)

// Response is what every request returns on success.
type Response struct {
	StatusCode int
	Body       string
}

// RequestOption customizes an outgoing request before it is sent.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// Observer receives one call per completed request. status is 0 when the
// request failed before a response arrived.
type Observer interface {
	ObserveRequest(method string, status int, elapsed time.Duration)
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, truncate(e.Body, 200))
}

// Client is a shared HTTP client for one Tower connection.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver attaches a request observer (metrics).
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a Client from a Connection.
func NewClient(conn *models.Connection, opts ...Option) *Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if conn.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if conn.CACert != "" {
		caCertPool := x509.NewCertPool()
		if caCertPool.AppendCertsFromPEM([]byte(conn.CACert)) {
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
	}
	c := &Client{
		baseURL:  strings.TrimRight(conn.BaseURL(), "/"),
		username: conn.Username,
		password: conn.Password,
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Re-apply basic auth on redirects
				if len(via) > 0 {
					req.SetBasicAuth(conn.Username, conn.Password)
				}
				return nil
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the scheme://host:port the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs an authenticated GET request.
func (c *Client) Get(path string) (*Response, error) {
	return c.do(http.MethodGet, path, nil)
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(path string, body interface{}) (*Response, error) {
	return c.do(http.MethodPost, path, body)
}

// Patch performs an authenticated PATCH request. Options run after the body
// and default headers are set, so they may replace either.
func (c *Client) Patch(path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.do(http.MethodPatch, path, body, opts...)
}

// Delete performs an authenticated DELETE request. A 404 counts as success.
func (c *Client) Delete(path string) error {
	_, err := c.do(http.MethodDelete, path, nil)
	var herr *HTTPError
	if errors.As(err, &herr) && herr.StatusCode == http.StatusNotFound {
		return nil // already gone
	}
	return err
}

func (c *Client) do(method, path string, payload interface{}, opts ...RequestOption) (*Response, error) {
	bodyReader, err := encodeBody(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, c.resolve(path), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode, start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("tower request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return &Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

func (c *Client) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, status, time.Since(start))
	}
}

// resolve turns a path into a full URL. Absolute URLs pass through untouched.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func encodeBody(payload interface{}) (io.Reader, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(p), nil
	case string:
		return strings.NewReader(p), nil
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
