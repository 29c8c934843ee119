// Package httpclient is the JSON client used by the loader to talk to the track API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"
)

// ServerError is the body of a failed request.
type ServerError struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
	Kind   string `json:"kind"`
}

// HTTPError is returned for responses with a status code of 400 or above.
type HTTPError struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// RequestOptions contains options for making HTTP requests
type RequestOptions struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        []byte
}

type ClientOption func(*clientConfig)

type clientConfig struct {
	dialTimeout    time.Duration
	requestTimeout time.Duration
	transport      http.RoundTripper
}

// WithDialTimeout bounds the time spent establishing a connection.
func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.dialTimeout = timeout
	}
}

// WithRequestTimeout bounds a whole request, response body included.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.requestTimeout = timeout
	}
}

// WithTransport replaces the transport. The dial timeout is ignored then.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// HTTPClient represents a client for making HTTP requests to the track API
type HTTPClient struct {
	serverURL  string
	httpClient *http.Client
}

func NewHTTPClient(serverURL string, opts ...ClientOption) (*HTTPClient, error) {
	config := &clientConfig{
		dialTimeout:    10 * time.Second,
		requestTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(config)
	}
	if _, err := url.Parse(serverURL); err != nil || serverURL == "" {
		return nil, fmt.Errorf("invalid server URL %q", serverURL)
	}
	transport := config.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DialContext = (&net.Dialer{Timeout: config.dialTimeout}).DialContext
		transport = t
	}
	return &HTTPClient{
		serverURL: serverURL,
		httpClient: &http.Client{
			Timeout:   config.requestTimeout,
			Transport: transport,
		},
	}, nil
}

func (c *HTTPClient) ServerURL() string {
	return c.serverURL
}

// DoRequest makes an HTTP request with the given options
func (c *HTTPClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, string, error) {
	req, err := newRequest(ctx, c.serverURL, opts)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Location"), nil
}

func newRequest(ctx context.Context, serverURL string, opts RequestOptions) (*http.Request, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Path = path.Join(u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func checkStatus(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var serverErr ServerError
	if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Error != "" {
		return &HTTPError{
			StatusCode: statusCode,
			Message:    serverErr.Error,
			Kind:       serverErr.Kind,
		}
	}
	return &HTTPError{
		StatusCode: statusCode,
		Message:    string(body),
	}
}

// StatusCode returns the status of an HTTPError, or 0 for any other error.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsConnectTimeout reports whether err is a timeout while establishing the
// connection. Timeouts after the request was sent are not included since the
// server may have acted on the request.
func IsConnectTimeout(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" && opErr.Timeout()
	}
	return false
}
