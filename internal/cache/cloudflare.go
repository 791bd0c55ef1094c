package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/utafrali/storefront-sync/pkg/httpclient"
)

// CloudflareConfig holds CDN purge configuration. Zone ID and API token are
// both required for the purger to be enabled.
type CloudflareConfig struct {
	ZoneID   string
	APIToken string
	BaseURL  string
	Timeout  time.Duration
}

// CloudflarePurger purges the Cloudflare edge cache for the storefront zone.
// Requests run through a circuit breaker so a broken CDN API cannot stall
// invalidation for every caller.
type CloudflarePurger struct {
	client *httpclient.CircuitBreakerClient
	cfg    CloudflareConfig
	logger *slog.Logger
}

// NewCloudflarePurger creates a CDN purger. When credentials are absent the
// purger reports itself disabled and PurgeAll becomes a no-op.
func NewCloudflarePurger(client *httpclient.CircuitBreakerClient, cfg CloudflareConfig, logger *slog.Logger) *CloudflarePurger {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudflare.com/client/v4"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &CloudflarePurger{client: client, cfg: cfg, logger: logger}
}

// Enabled reports whether purge credentials are configured.
func (p *CloudflarePurger) Enabled() bool {
	return p.cfg.ZoneID != "" && p.cfg.APIToken != ""
}

type purgeRequest struct {
	PurgeEverything bool `json:"purge_everything"`
}

type purgeResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// PurgeAll purges the entire zone. The call is bounded by the configured
// timeout regardless of the caller's context deadline.
func (p *CloudflarePurger) PurgeAll(ctx context.Context) error {
	if !p.Enabled() {
		p.logger.Debug("cloudflare purge skipped, no credentials configured")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(purgeRequest{PurgeEverything: true})
	if err != nil {
		return fmt.Errorf("marshal purge request: %w", err)
	}

	url := fmt.Sprintf("%s/zones/%s/purge_cache", strings.TrimSuffix(p.cfg.BaseURL, "/"), p.cfg.ZoneID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("create purge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIToken)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("cloudflare purge: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read purge response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudflare purge returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var pr purgeResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return fmt.Errorf("decode purge response: %w", err)
	}
	if !pr.Success {
		msg := "unknown error"
		if len(pr.Errors) > 0 {
			msg = pr.Errors[0].Message
		}
		return fmt.Errorf("cloudflare purge rejected: %s", msg)
	}

	p.logger.Info("cloudflare cache purged", slog.String("zone_id", p.cfg.ZoneID))
	return nil
}
