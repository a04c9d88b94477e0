// Package github provides a small retrying client over the GitHub REST
// API. Transient failures (network errors, 5xx, rate limiting) are
// retried with exponential backoff; other 4xx responses fail immediately
// with a typed error.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/globalbusinessadvisors/secretscout/pkg/errs"
	scouthttp "github.com/globalbusinessadvisors/secretscout/pkg/http"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
)

// maxRetries is the number of retries after the first attempt
const maxRetries = 3

// maxBackoffDelay caps the wait between attempts even when the server
// asks for a longer reset window
const maxBackoffDelay = 60 * time.Second

// Client talks to the GitHub REST API
type Client struct {
	baseURL    string
	token      string
	httpClient scouthttp.HTTPClient
	limiter    *rate.Limiter
	baseDelay  time.Duration
	sleep      func(context.Context, time.Duration) error
}

// StatusError is returned for non-retryable HTTP failures so callers can
// inspect the status code
type StatusError struct {
	Status  int
	Message string
}

// Error is defined to implement the error interface
func (e StatusError) Error() string {
	return fmt.Sprintf("api request failed: status=%d message=%q", e.Status, logger.Sanitize(e.Message))
}

// NewClient builds a Client for the given API base URL and token
func NewClient(baseURL string, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: scouthttp.NewClient(),
		// Secondary rate limits kick in well below this; keep a mild
		// client-side ceiling so bursts of comment posts don't trip them
		limiter:   rate.NewLimiter(rate.Limit(5), 5),
		baseDelay: time.Second,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Request performs one API call with retries and decodes the JSON
// response into out when out is non-nil
func (c *Client) Request(ctx context.Context, method string, path string, body any, out any) error {
	var payload []byte

	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("could not encode request body: %v", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.Reset()

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		raw, retryAfter, err := c.do(ctx, method, path, payload)
		if err == nil {
			if out == nil {
				return nil
			}
			return json.Unmarshal(raw, out)
		}

		if isPermanent(err) {
			return err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		delay := bo.NextBackOff()
		if retryAfter > delay {
			delay = retryAfter
		}
		if delay > maxBackoffDelay {
			delay = maxBackoffDelay
		}

		logger.Warning("request failed (attempt %d/%d), retrying in %s: %v", attempt+1, maxRetries+1, delay, err)

		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return errs.New(errs.Fatal, errs.APIRequestError, "request failed after %d attempts: %v", maxRetries+1, lastErr)
}

// do performs a single attempt. The returned duration is the server
// indicated wait before the next attempt, zero when none was given.
func (c *Client) do(ctx context.Context, method string, path string, payload []byte) ([]byte, time.Duration, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	if len(c.token) > 0 {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, 0, nil
	}

	if rateLimited(resp) {
		return nil, resetWait(resp), StatusError{Status: resp.StatusCode, Message: "rate limited"}
	}

	if resp.StatusCode >= 500 {
		return nil, resetWait(resp), StatusError{Status: resp.StatusCode, Message: string(raw)}
	}

	return nil, 0, StatusError{Status: resp.StatusCode, Message: string(raw)}
}

// isPermanent reports whether the error should not be retried. Network
// errors and 5xx/rate-limit statuses are transient; every other HTTP
// status is permanent.
func isPermanent(err error) bool {
	se, ok := err.(StatusError)
	if !ok {
		// Network-level failure, retryable
		return false
	}

	return !se.StatusCode5xx() && !se.RateLimited()
}

// StatusCode5xx reports whether this is a server-side failure
func (e StatusError) StatusCode5xx() bool {
	return e.Status >= 500
}

// RateLimited reports whether this error came from a rate-limit response
func (e StatusError) RateLimited() bool {
	return e.Message == "rate limited"
}

// rateLimited detects both primary (429) and secondary (403 with an
// exhausted quota header) rate limit responses
func rateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// resetWait derives how long the server wants us to wait from the
// Retry-After or X-RateLimit-Reset headers
func resetWait(resp *http.Response) time.Duration {
	if retryAfter := resp.Header.Get("Retry-After"); len(retryAfter) > 0 {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	if reset := resp.Header.Get("X-RateLimit-Reset"); len(reset) > 0 {
		if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
			if wait := time.Until(time.Unix(epoch, 0)); wait > 0 {
				return wait
			}
		}
	}

	return 0
}
