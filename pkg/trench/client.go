// Package trench wraps the trench.bot bundle-analysis API.
package trench

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/config"
)

const defaultRequestTimeout = 10 * time.Second

// ErrNoData reports that the API answered but returned no usable
// bundle payload for the address. Distinct from transport failures so
// callers can tell an intentional empty answer from a broken call.
var ErrNoData = errors.New("trench: no bundle data for address")

// The upstream endpoint rejects requests without a browser-looking
// header set, so every call carries one.
var browserHeaders = map[string]string{
	"Accept":             "*/*",
	"Accept-Language":    "en-US,en;q=0.9",
	"Cache-Control":      "no-cache",
	"Connection":         "keep-alive",
	"Pragma":             "no-cache",
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-origin",
	"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"sec-ch-ua":          `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
	"sec-ch-ua-mobile":   "?0",
	"sec-ch-ua-platform": `"macOS"`,
}

// CreatorAnalysis is the creator-risk slice of a bundle report.
type CreatorAnalysis struct {
	RiskLevel    string    `json:"risk_level"`
	WarningFlags []*string `json:"warning_flags"`
}

// BundleReport is the subset of the bundle_advanced response the bot
// consumes. Other upstream fields are ignored.
type BundleReport struct {
	Ticker                 string          `json:"ticker"`
	TotalHoldingPercentage float64         `json:"total_holding_percentage"`
	TotalBundles           int             `json:"total_bundles"`
	TotalPercentageBundled float64         `json:"total_percentage_bundled"`
	TotalSOLSpent          float64         `json:"total_sol_spent"`
	CreatorAnalysis        CreatorAnalysis `json:"creator_analysis"`
}

// Client performs single best-effort bundle lookups. No retries, no
// caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient constructs a bundle API client from config.
func NewClient(cfg config.TrenchConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	timeout := defaultRequestTimeout
	if cfg.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "trench.client"),
	}
}

// PageURL returns the human-facing bundle page for an address. It is
// used both as the reply title link and as the Referer on API calls.
func (c *Client) PageURL(address string) string {
	return c.baseURL + "/bundles/" + address
}

// BundleReport fetches the advanced bundle analysis for a contract
// address.
func (c *Client) BundleReport(ctx context.Context, address string) (*BundleReport, error) {
	endpoint := c.baseURL + "/api/bundle/bundle_advanced/" + address

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build bundle request: %w", err)
	}

	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("Referer", c.PageURL(address))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bundle report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch bundle report: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bundle response: %w", err)
	}

	payload := bytes.TrimSpace(body)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, ErrNoData
	}

	var report BundleReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode bundle response: %w", err)
	}

	if report.Ticker == "" && report.TotalBundles == 0 {
		return nil, ErrNoData
	}

	c.log.Debug("Fetched bundle report", "address", address, "ticker", report.Ticker, "bundles", report.TotalBundles)

	return &report, nil
}
