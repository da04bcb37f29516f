// Package upstream implements the corpus ingestion client (component G):
// a paginated fetcher with retry/backoff against the upstream
// certification API named by C3_URL.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// DefaultBaseURL is C3_URL's default (§6.2, §6.4).
const DefaultBaseURL = "https://certification.canonical.com"

const (
	maxAttempts  = 5
	backoffBase  = 2 * time.Second
	backoffMax   = 60 * time.Second
	attemptTimeout = 90 * time.Second
)

// Client fetches upstream JSON endpoints with the retry policy described
// in spec §4.7: a persistent http.Client (the "session" with a
// library-level retry adapter in the original) plus a per-call custom
// retry loop over {timeout, connect error, 5xx, 429}.
//
// Grounded on bg/common/urlfetch.FetchURL's explicit http.Client/
// client.Do/errors.Wrap request style; the backoff-as-a-function-of-
// attempt shape follows malbeclabs-doublezero's submitter.go
// defaultBackoff, with the jitter term dropped since spec §4.7 specifies
// an exact deterministic formula.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Client whose HTTP client times out each attempt at
// 90s, matching spec §4.7/§5.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: attemptTimeout,
		},
	}
}

// backoffDelay implements min(base*2^attempt, max_delay), attempt
// 0-indexed, as spec.md §4.7 specifies literally.
func backoffDelay(attempt int) time.Duration {
	d := backoffBase
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= backoffMax {
			return backoffMax
		}
	}
	if d > backoffMax {
		return backoffMax
	}
	return d
}

// retryable reports whether a non-2xx status code should be retried:
// 429 and every 5xx, per spec §4.7. Other 4xx codes are terminal.
func retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// FetchError is returned when all attempts to fetch a URL are exhausted.
// It carries the last status code, if any, for diagnostic logging.
type FetchError struct {
	URL        string
	Attempts   int
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream: %s failed after %d attempts: %v", e.URL, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("upstream: %s failed after %d attempts: status %d", e.URL, e.Attempts, e.StatusCode)
}

// fetchJSON performs the per-call custom retry loop of §4.7 and decodes
// the response body as JSON into out.
func (c *Client) fetchJSON(ctx context.Context, url string, out interface{}) error {
	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffDelay(attempt - 1)):
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "fetch cancelled during backoff")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "failed to build request")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			// Connection errors and read/connect timeouts are retryable.
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			body, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				return errors.Wrap(err, "failed to read response body")
			}
			if err := json.Unmarshal(body, out); err != nil {
				return errors.Wrapf(err, "failed to decode response from %s", url)
			}
			return nil
		}

		lastStatus = resp.StatusCode
		resp.Body.Close()
		if !retryable(resp.StatusCode) {
			return &FetchError{URL: url, Attempts: attempt + 1, StatusCode: resp.StatusCode}
		}
		lastErr = nil
	}

	return &FetchError{URL: url, Attempts: maxAttempts, StatusCode: lastStatus, Cause: lastErr}
}
