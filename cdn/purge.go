// Package cdn implements the retrying HTTP caller used to invalidate an
// external CDN's cache for a namespace's JSON document. Retry policy is
// built on cenkalti/backoff's exponential backoff.
package cdn

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
)

const (
	maxAttempts    = 3
	perRequestWait = 10 * time.Second
)

// Client issues purge requests against an external CDN API.
type Client struct {
	BaseURL  string
	APIToken string
	ZoneID   string
	HTTP     *http.Client
	Logger   *zap.SugaredLogger
}

// New builds a Client with a sane default HTTP client. An empty
// baseURL falls back to the Cloudflare v4 API endpoint.
func New(baseURL, apiToken, zoneID string, logger *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = "https://api.cloudflare.com/client/v4"
	}
	return &Client{
		BaseURL:  baseURL,
		APIToken: apiToken,
		ZoneID:   zoneID,
		HTTP:     &http.Client{Timeout: perRequestWait},
		Logger:   logger,
	}
}

// PurgeKey issues a purge request for the given object key, retrying up
// to three attempts with exponential backoff and a 10s per-request
// timeout. Failures after retries are logged at warning and returned,
// but never block the caller's other work -- the
// rescan orchestrator treats a non-nil return as log-only.
func (c *Client) PurgeKey(ctx context.Context, key string) error {
	op := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, perRequestWait)
		defer cancel()
		return c.doPurge(reqCtx, key)
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxAttempts-1))
	err := backoff.Retry(op, bo)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warnw("cdn purge failed after retries", "key", key, "error", err)
		}
		return cmn.NewCDNError("cdn.purge", key, err)
	}
	return nil
}

func (c *Client) doPurge(ctx context.Context, key string) error {
	url := fmt.Sprintf("%s/zones/%s/purge_cache", c.BaseURL, c.ZoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, purgeBody(key))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		// Server-side failures are worth retrying; 4xx are not.
		return fmt.Errorf("cdn: purge returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return backoff.Permanent(fmt.Errorf("cdn: purge returned %d", resp.StatusCode))
	}
	return nil
}
