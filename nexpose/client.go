package nexpose

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
)

const (
	DefaultPageSize    = 500
	DefaultTimeout     = 60 * time.Second
	DefaultMaxAttempts = 3
	DefaultMaxBackoff  = 10 * time.Second
)

// Environment is a named Nexpose API host, e.g. "prod" -> https://nexpose:3780/api/3
type Environment struct {
	Name string
	URL  string
}

// Options configures a Client
type Options struct {
	Environments []Environment
	// Environment selects one of Environments by name
	Environment string
	// OverrideURL bypasses the environment lookup
	OverrideURL string
	Credential  Credential
	PageSize    int
	Timeout     time.Duration
	// InsecureSkipVerify disables TLS certificate verification. Off by default
	InsecureSkipVerify bool
	MaxAttempts        int
	MaxBackoff         time.Duration
	// HTTPClient replaces the default client (tests inject httptest clients here)
	HTTPClient *http.Client
	Metrics    *Metrics
}

// Client talks to a single Nexpose API host. Calls are sequential; a Client
// is not meant to be shared between goroutines
type Client struct {
	host       string
	credential Credential
	pageSize   int
	httpClient *http.Client
	retryer    *retry.Standard
	metrics    *Metrics
	checkErr   error
}

// ResolveHost returns the base URL for the selected environment
func ResolveHost(envs []Environment, name, overrideURL string) (string, error) {
	if overrideURL != "" {
		return strings.TrimRight(overrideURL, "/"), nil
	}
	known := make([]string, 0, len(envs))
	for _, env := range envs {
		if env.Name == name && env.URL != "" {
			return strings.TrimRight(env.URL, "/"), nil
		}
		known = append(known, env.Name)
	}
	return "", &ConfigurationError{Environment: name, Known: known}
}

// NewClient resolves the host and checks it with a one-item site listing
// A failed check does not fail construction; inspect CheckError
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	host, err := ResolveHost(opts.Environments, opts.Environment, opts.OverrideURL)
	if err != nil {
		return nil, err
	}

	c := newClient(host, opts)
	slog.Debug("Created Nexpose client",
		"host", host,
		"credential", opts.Credential,
		"page_size", c.pageSize,
		"insecure_skip_verify", opts.InsecureSkipVerify)

	c.checkErr = c.check(ctx)
	return c, nil
}

func newClient(host string, opts Options) *Client {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient(opts.Timeout, opts.InsecureSkipVerify)
	}

	return &Client{
		host:       host,
		credential: opts.Credential,
		pageSize:   pageSize,
		httpClient: httpClient,
		retryer:    newRetryer(maxAttempts, maxBackoff),
		metrics:    opts.Metrics,
	}
}

func defaultHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if insecure {
		slog.Warn("TLS certificate verification is disabled for the Nexpose API")
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: insecure, //nolint:gosec // explicit opt-out
		},
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Host returns the base URL the client is bound to
func (c *Client) Host() string {
	return c.host
}

// CheckError returns the *ConnectionError recorded at construction, or nil
func (c *Client) CheckError() error {
	return c.checkErr
}

func (c *Client) check(ctx context.Context) error {
	query := url.Values{"page": {"0"}, "size": {"1"}}
	var resp pageResponse
	if _, err := c.do(ctx, http.MethodGet, "/sites", query, &resp); err != nil {
		connErr := &ConnectionError{Host: c.host, Err: err}
		slog.Error("Unable to query API",
			"host", c.host,
			"status", connErr.StatusCode(),
			"error", err)
		return connErr
	}
	slog.Info("Connected to Nexpose API", "host", c.host, "username", c.credential.Username())
	return nil
}

// ListPaginated fetches every page of a list endpoint and concatenates the
// resources in page order. Any failed page discards the whole result
func (c *Client) ListPaginated(ctx context.Context, path string, params url.Values) ([]Resource, error) {
	first, err := c.getPage(ctx, path, params, 0)
	if err != nil {
		return nil, err
	}

	resources := first.Resources
	totalPages := 1
	if first.Page != nil && first.Page.TotalPages > 1 {
		totalPages = first.Page.TotalPages
	}

	for page := 1; page < totalPages; page++ {
		resp, err := c.getPage(ctx, path, params, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d of %d for %s: %w", page+1, totalPages, path, err)
		}
		resources = append(resources, resp.Resources...)
	}

	slog.Debug("Fetched paginated resources",
		"path", path,
		"pages", totalPages,
		"count", len(resources))
	return resources, nil
}

func (c *Client) getPage(ctx context.Context, path string, params url.Values, page int) (*pageResponse, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(c.pageSize))

	var resp pageResponse
	if _, err := c.do(ctx, http.MethodGet, path, query, &resp); err != nil {
		return nil, err
	}
	c.metrics.observePage()
	return &resp, nil
}

// do issues a request, retrying transient failures, and decodes a 2xx body into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out interface{}) (int, error) {
	for attempt := 1; ; attempt++ {
		status, err := c.doOnce(ctx, method, path, query, out)
		if err == nil {
			return status, nil
		}
		if ctx.Err() != nil || attempt >= c.retryer.MaxAttempts() || !c.retryer.IsErrorRetryable(err) {
			return status, err
		}

		delay, delayErr := c.retryer.RetryDelay(attempt, err)
		if delayErr != nil {
			return status, err
		}
		slog.Warn("Retrying Nexpose API request",
			"method", method,
			"path", path,
			"attempt", attempt,
			"delay", delay,
			"error", err)
		c.metrics.observeRetry()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return status, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, out interface{}) (int, error) {
	target := c.host + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.credential.apply(req)

	slog.Debug("Calling Nexpose API", "method", method, "path", path, "query", query.Encode())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(method, 0)
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.observeRequest(method, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return resp.StatusCode, nil
}

// errorMessage extracts the "message" field of a Nexpose error body
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// IsNotFound reports whether err is an API 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is an API 401 or 403, including a
// failed connection check
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
