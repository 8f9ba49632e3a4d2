package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	httpMaxRetries  = 3
	httpRetryBase   = 500 * time.Millisecond
	httpMaxBodySize = 32 << 20
)

// HTTPSource fetches a batch document over HTTP, retrying transient failures.
type HTTPSource struct {
	url     string
	client  *http.Client
	backoff func() retry.Backoff
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(httpMaxRetries, retry.NewFibonacci(httpRetryBase))
		},
	}
}

func (*HTTPSource) Name() string { return "http" }

func (h *HTTPSource) FetchBatch(ctx context.Context) ([]RawRecord, error) {
	var body []byte
	err := retry.Do(ctx, h.backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := h.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("upstream returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("upstream returned %d", resp.StatusCode)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, httpMaxBodySize))
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.url, err)
	}
	return Decode(body)
}
