package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTableURL returns every observation of table 354 (disease
	// incidence related to inadequate sanitation) at the state level.
	DefaultTableURL = "https://apisidra.ibge.gov.br/values/t/354/g/2/v/allxp/p/all/c12963/all?formato=json"

	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "saneamento-dashboard/1.0 (+https://apisidra.ibge.gov.br)"
	maxBodyBytes     = 32 << 20
)

// Client wraps HTTP access to the SIDRA values API.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

// APIError is returned when SIDRA responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "sidra api error"
	}
	if e.Body == "" {
		return fmt.Sprintf("sidra api error: %s", e.Status)
	}
	return fmt.Sprintf("sidra api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// NewClient creates a new API client. If httpClient is nil, a default client
// with DefaultTimeout is used.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		httpClient:   httpClient,
		userAgent:    defaultUserAgent,
		maxBodyBytes: maxBodyBytes,
	}
}

// FetchTable issues a single GET against endpoint and returns the raw body.
// Nothing is retried; a failed fetch is reported to the caller as is.
func (c *Client) FetchTable(ctx context.Context, endpoint string) ([]byte, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("table url is required")
	}
	if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid table url %q", endpoint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
		return nil, &APIError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", endpoint, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", endpoint, c.maxBodyBytes)
	}
	return body, nil
}
