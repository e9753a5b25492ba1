package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultRatePerSecond = 5
	defaultBurst         = 10
	defaultMaxRetries    = 3
	defaultHTTPTimeout   = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 1 << 20

	// maxLoggedBodyBytes caps error bodies copied into logs
	maxLoggedBodyBytes = 512
)

// Config holds settings for the remote scoring service client
type Config struct {
	BaseURL       string
	APIKey        string
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	HTTPTimeout   time.Duration
}

// Client calls a remote scoring service that implements product search and
// deep analysis
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	maxRetries  int
	backoff     func(attempt int) time.Duration
	logger      logrus.FieldLogger
	debug       bool
}

var _ domain.AnalysisProvider = (*Client)(nil)

// NewClient creates a new scoring service client
func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	ratePerSecond := cfg.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = defaultRatePerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	httpTimeout := cfg.HTTPTimeout
	if httpTimeout <= 0 {
		httpTimeout = defaultHTTPTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		maxRetries:  maxRetries,
		backoff:     exponentialBackoff,
		logger:      logger.WithField("component", "scoring_client"),
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		c.logger.Debugf(format, args...)
	}
}

type searchResponse struct {
	Products []domain.Product `json:"products"`
}

// SearchProducts asks the scoring service for products matching query
func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	c.debugLog("SearchProducts called with query: %q", query)

	params := url.Values{}
	params.Add("query", query)

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, "/v1/products/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	c.debugLog("Found %d products for query: %q", len(resp.Products), query)
	return resp.Products, nil
}

// AnalyzeProduct asks the scoring service for a deep analysis of product
func (c *Client) AnalyzeProduct(ctx context.Context, product domain.Product) (*domain.AnalysisResult, error) {
	c.debugLog("AnalyzeProduct called for product: %s", product.ID)

	body, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode product: %v", domain.ErrInvalidInput, err)
	}

	var result domain.AnalysisResult
	if err := c.do(ctx, http.MethodPost, "/v1/products/analyze", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do executes a request with rate limiting and retries, decoding a 200
// response into out. 5xx, 429 and transport errors are retried; other
// statuses fail immediately.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	reqURL := c.baseURL + path
	if _, err := url.Parse(reqURL); err != nil {
		return fmt.Errorf("%w: failed to create request: %v", domain.ErrProviderUnavailable, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return contextError(ctx, fmt.Errorf("rate limiter: %w", err))
		}

		resp, err := c.doRequest(ctx, method, reqURL, body)
		if err != nil {
			if ctx.Err() != nil {
				return contextError(ctx, err)
			}
			c.logger.WithError(err).WithField("attempt", attempt).Warn("Scoring service request failed")
			lastErr = err
			if err := c.sleep(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		data, readErr := readLimitedBody(resp.Body, maxResponseBytes)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: failed to read response: %v", domain.ErrProviderUnavailable, readErr)
			if err := c.sleep(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"status":  resp.StatusCode,
				"body":    truncate(data, maxLoggedBodyBytes),
			}).Warn("Scoring service returned an error")

			lastErr = fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
			if !retryable(resp.StatusCode) {
				return lastErr
			}
			if err := c.sleep(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderUnavailable, err)
		}
		return nil
	}

	c.logger.WithField("path", path).Error("All scoring service retries failed")
	return lastErr
}

// doRequest executes an HTTP request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("User-Agent", "EcoFinder/1.0")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.debugLog("%s %s", method, reqURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	return resp, nil
}

// sleep waits out the backoff for attempt unless ctx ends first
func (c *Client) sleep(ctx context.Context, attempt int) error {
	if attempt >= c.maxRetries {
		return nil
	}

	timer := time.NewTimer(c.backoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return contextError(ctx, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func retryable(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// contextError maps a failure caused by ctx onto the domain error kinds
func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %v", context.Canceled, err)
	}
	return err
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
