package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sony/gobreaker"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// Client wraps the archive/portal HTTP transport with a bounded
// connection pool, a circuit breaker, a short 5xx-only retry, and a
// fixed politeness delay before each archive byte-range fetch. The
// delay is an independent per-call sleep, not a shared token bucket:
// worker goroutines fetch concurrently, each pacing only itself.
type Client struct {
	http        *http.Client
	breaker     *gobreaker.CircuitBreaker
	politeDelay time.Duration
}

// NewClient builds a Client. politeDelay is applied once per archive
// download, ahead of the request, to stay within Common Crawl's fair-use
// expectations.
func NewClient(politeDelay time.Duration) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "archive-fetch",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})

	return &Client{
		http:        &http.Client{Timeout: 30 * time.Second, Transport: transport},
		breaker:     cb,
		politeDelay: politeDelay,
	}
}

// FetchRange issues a byte-range GET for the archive segment at
// baseURL+filename, preceded by the fixed politeness delay, with a short
// exponential-backoff retry on 5xx responses.
func (c *Client) FetchRange(ctx context.Context, baseURL, filename string, offset, length int64) ([]byte, error) {
	if err := sleepContext(ctx, c.politeDelay); err != nil {
		return nil, fmt.Errorf("%w: politeness wait: %v", domain.ErrTransport, err)
	}

	url := baseURL + filename
	rangeHeader := ""
	if length > 0 {
		rangeHeader = fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	}

	body, err := c.doWithBreaker(ctx, url, rangeHeader)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// FetchDirect issues a plain GET against url, for portal-discovered
// tasks that carry no archive byte-range reference. No politeness delay
// or circuit breaker: this is a single best-effort fetch per task.
func (c *Client) FetchDirect(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ColcapResearchBot/1.0; Academic Research)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProtocol, resp.StatusCode)
	}

	mtype, body, err := sniffAndRead(resp.Body)
	if err != nil {
		return nil, err
	}
	if !isHTMLLike(mtype) {
		return nil, fmt.Errorf("%w: unexpected content type %s", domain.ErrProtocol, mtype)
	}
	return body, nil
}

func (c *Client) doWithBreaker(ctx context.Context, url, rangeHeader string) ([]byte, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.fetchWithRetry(ctx, url, rangeHeader)
	})
	observability.RecordCircuitBreakerStatus("archive-fetch", "fetch", int(c.breaker.State()))
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) fetchWithRetry(ctx context.Context, url, rangeHeader string) ([]byte, error) {
	var result []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: build request: %v", domain.ErrTransport, err))
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ColcapResearchBot/1.0; Academic Research)")
		if rangeHeader != "" {
			req.Header.Set("Range", rangeHeader)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrTransport, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", domain.ErrProtocol, resp.StatusCode)
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("%w: status %d", domain.ErrProtocol, resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: read body: %v", domain.ErrTransport, err))
		}
		result = body
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond
	expo.MaxElapsedTime = 2 * time.Second
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, 2), ctx)

	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return result, nil
}

// sleepContext blocks for d, or until ctx is cancelled, whichever comes
// first. Each caller sleeps on its own goroutine: concurrent fetches pace
// themselves independently instead of contending for a shared limiter.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sniffAndRead(r io.Reader) (string, []byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, 10*1024*1024))
	if err != nil {
		return "", nil, fmt.Errorf("%w: read body: %v", domain.ErrTransport, err)
	}
	mtype := mimetype.Detect(body)
	return mtype.String(), body, nil
}

func isHTMLLike(mimeType string) bool {
	return len(mimeType) >= 9 && mimeType[:9] == "text/html"
}
