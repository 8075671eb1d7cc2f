package gymsite

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/errors"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
)

// Client talks to the reservation site. It is a thin transport: one bounded
// HTTP call per method, no retries. Classification of what a body means is
// the caller's job, because a "not ready" page is a perfectly valid 200.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a client for the reservation site. headers are sent on
// every request; the site rejects calls without its expected User-Agent and
// Referer.
func NewClient(baseURL string, timeout time.Duration, headers map[string]string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    h,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log,
	}
}

// SetHeader sets a custom header for the client.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET and returns the body and status code. Network and
// timeout failures come back as typed transient errors; any readable
// response, 2xx or not, is delivered as a body.
func (c *Client) Get(ctx context.Context, rawurl string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, 0, errs.New(errs.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	return c.do(req)
}

// PostForm performs a form POST and returns the body and status code.
func (c *Client) PostForm(ctx context.Context, rawurl string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawurl, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, errs.New(errs.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, 0, errs.New(errs.ErrorTypeTransient, "network error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errs.NewWithCode(errs.ErrorTypeTransient, resp.StatusCode,
			"failed to read response body: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return body, resp.StatusCode, nil
}
