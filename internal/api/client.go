package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rescale/box-browse/internal/config"
	"github.com/rescale/box-browse/internal/constants"
	"github.com/rescale/box-browse/internal/http"
	"github.com/rescale/box-browse/internal/logging"
	"github.com/rescale/box-browse/internal/ratelimit"
	"github.com/rescale/box-browse/internal/version"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

// apiMetrics tracks API usage statistics
type apiMetrics struct {
	sync.Mutex
	totalCalls    int64
	callsInWindow int64
	windowStart   time.Time
}

// Client represents the Box API client
type Client struct {
	httpClient    *nethttp.Client
	baseURL       string
	token         string
	limiter       *ratelimit.RateLimiter // folders, files, web_links
	searchLimiter *ratelimit.RateLimiter // /search only
	log           *logging.Logger
	metrics       *apiMetrics
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, errors.New("API base URL is empty")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	httpClient, err := http.NewAPIClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	httpClient.CheckRedirect = checkRedirect

	c := &Client{
		baseURL:       strings.TrimSuffix(cfg.APIBaseURL, "/"),
		token:         cfg.Token,
		limiter:       ratelimit.NewRateLimiter(cfg.RequestsPerSecond, ratelimit.DefaultBurstCapacity),
		searchLimiter: ratelimit.NewSearchRateLimiter(),
		log:           logger,
		metrics:       &apiMetrics{windowStart: time.Now()},
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.MaxRetries
	retryClient.RetryWaitMin = constants.RetryInitialDelay
	retryClient.RetryWaitMax = constants.RetryMaxDelay
	retryClient.Logger = &retryLogger{log: logger}
	retryClient.CheckRetry = c.checkRetry
	// Hand the last response back instead of a generic "giving up" error so
	// callers see the Box error payload
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	// The inner client stops at thumbnail redirects; the outer one must too
	c.httpClient = retryClient.StandardClient()
	c.httpClient.CheckRedirect = checkRedirect
	return c, nil
}

// checkRedirect stops at the first redirect of a thumbnail request. Box
// redirects to a placeholder image when no thumbnail exists.
func checkRedirect(req *nethttp.Request, via []*nethttp.Request) error {
	if len(via) > 0 && strings.HasSuffix(via[0].URL.Path, "/thumbnail.jpg") {
		return nethttp.ErrUseLastResponse
	}
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	return nil
}

// checkRetry empties the bucket on 429 so the requests queued behind this
// one slow down too, then defers to the default policy.
func (c *Client) checkRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == nethttp.StatusTooManyRequests {
		c.limiter.Drain()
		ev := c.log.Warn().Str("retry_after", resp.Header.Get("Retry-After"))
		if resp.Request != nil {
			ev = ev.Str("path", resp.Request.URL.Path)
		}
		ev.Msg("throttled by Box API")
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// TotalCalls returns the number of requests sent since the client was created.
func (c *Client) TotalCalls() int64 {
	c.metrics.Lock()
	defer c.metrics.Unlock()
	return c.metrics.totalCalls
}

// doRequest performs an HTTP request with authentication and rate limiting
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*nethttp.Response, error) {
	limiter := c.limiter
	if strings.HasPrefix(path, "/search") {
		limiter = c.searchLimiter
	}
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	c.trackCall()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := nethttp.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("API call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

func (c *Client) trackCall() {
	c.metrics.Lock()
	defer c.metrics.Unlock()

	c.metrics.totalCalls++
	c.metrics.callsInWindow++

	if elapsed := time.Since(c.metrics.windowStart); elapsed >= 30*time.Second {
		c.log.Debug().
			Float64("req_per_sec", float64(c.metrics.callsInWindow)/elapsed.Seconds()).
			Int64("total_calls", c.metrics.totalCalls).
			Msg("API usage")
		c.metrics.callsInWindow = 0
		c.metrics.windowStart = time.Now()
	}
}

// doJSON performs a request and decodes a 2xx JSON answer into out.
// Anything else becomes an *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func fieldsQuery(fields []string) url.Values {
	q := url.Values{}
	if len(fields) > 0 {
		q.Set("fields", strings.Join(fields, ","))
	}
	return q
}
