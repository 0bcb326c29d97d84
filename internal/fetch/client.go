// Package fetch retrieves a track's full byte stream from a URL or a local path.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Alexander-D-Karpov/ampwave/internal/config"
)

// ErrBadStatus is matched by every *StatusError.
var ErrBadStatus = errors.New("bad status")

// StatusError reports a completed HTTP exchange with a non-OK status.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: bad status: %s", e.URL, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrBadStatus
}

type Client struct {
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
	userAgent  string
	log        zerolog.Logger

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Fetch.Retries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = time.Duration(cfg.Fetch.Timeout) * time.Second
	// keep the final response so callers see the real status instead of "giving up"
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	if cfg.Debug {
		retryClient.Logger = &debugLogger{log: logger}
	}

	rps := rate.Limit(cfg.Fetch.RateLimit.RequestsPerSecond)
	if cfg.Fetch.RateLimit.RequestsPerSecond <= 0 {
		rps = rate.Inf
	}

	return &Client{
		httpClient: retryClient,
		limiter:    rate.NewLimiter(rps, max(cfg.Fetch.RateLimit.BurstSize, 1)),
		userAgent:  cfg.Fetch.UserAgent,
		log:        logger,
	}
}

type debugLogger struct {
	log zerolog.Logger
}

func (d *debugLogger) Printf(format string, args ...interface{}) {
	d.log.Debug().Msgf("[HTTP] "+format, args...)
}

// Fetch returns the bytes behind locator: http(s) URLs go through the retrying
// client, file:// URLs and bare paths are read from disk.
func (c *Client) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if locator == "" {
		return nil, fmt.Errorf("fetch: empty locator")
	}

	u, err := url.Parse(locator)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return c.fetchHTTP(ctx, locator)
	}

	path := locator
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	return c.readFile(ctx, path)
}

func (c *Client) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()
	n := c.requestCount.Add(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "audio/mpeg, audio/ogg, audio/flac, audio/wav, audio/*")

	c.log.Debug().Int64("request", n).Str("url", rawURL).Msg("fetching track")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.errorCount.Add(1)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Debug().Err(closeErr).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.errorCount.Add(1)
		statusErr := &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: rawURL}
		c.log.Debug().Err(statusErr).Dur("took", time.Since(start)).Msg("fetch failed")
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.errorCount.Add(1)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.log.Debug().
		Str("url", rawURL).
		Int("bytes", len(body)).
		Str("content_type", resp.Header.Get("Content-Type")).
		Dur("took", time.Since(start)).
		Msg("fetched track")

	return body, nil
}

func (c *Client) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("read local track")
	return data, nil
}

// Stats returns the number of HTTP requests issued and how many failed.
func (c *Client) Stats() (requests, failures int64) {
	return c.requestCount.Load(), c.errorCount.Load()
}
