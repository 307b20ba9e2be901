package countme

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"countme/internal/logger"
)

// Doer dispatches one counting request. Implementations must follow
// redirects and discard the response body; only success or failure
// matters to the caller.
type Doer interface {
	Get(ctx context.Context, url, userAgent string) error
}

// Client is the production Doer backed by net/http.
type Client struct {
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a counting request client with the given timeout.
func NewClient(timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Get sends one counting GET. The server registers the count from the
// request itself; the body carries nothing of interest and is discarded.
// Redirects are followed by the default client policy. Any status outside
// 2xx is a failure for this repository.
func (c *Client) Get(ctx context.Context, url, userAgent string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused for the next repository.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	c.log.Debug("counting request sent", "url", url, "status", resp.StatusCode)
	return nil
}
