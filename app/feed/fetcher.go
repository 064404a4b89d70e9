package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxRetryDelay = 30 * time.Second

// Fetcher retrieves feed content over HTTP with bounded retries on 429/5xx
// responses and transport errors, using exponential backoff.
type Fetcher struct {
	client    *http.Client
	userAgent string
	attempts  int
	baseDelay time.Duration
}

func NewFetcher(userAgent string, attempts int, baseDelay, timeout time.Duration) *Fetcher {
	if attempts < 1 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		attempts:  attempts,
		baseDelay: baseDelay,
	}
}

// Fetch returns the response body, retrying retriable failures until the
// attempt budget is exhausted.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.attempts; attempt++ {
		if attempt > 0 {
			delay := f.backoffDelay(attempt)
			slog.Debug("Retrying feed fetch", "url", url, "attempt", attempt+1, "delay", delay.String())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		data, retriable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retriable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", f.attempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		// Transport errors and timeouts are worth retrying
		return nil, true, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retriable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retriable, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, false, nil
}

// backoffDelay doubles the configured base delay per attempt, capped so a
// large base delay is honored but never amplified past itself.
func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	delay := f.baseDelay << uint(attempt-1)
	limit := maxRetryDelay
	if f.baseDelay > limit {
		limit = f.baseDelay
	}
	if delay > limit {
		delay = limit
	}
	return delay
}
