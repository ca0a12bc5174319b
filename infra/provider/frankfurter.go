// Package provider implements the upstream rate source over HTTP.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fxpocket/fxpocket/pkg/config"
	"github.com/fxpocket/fxpocket/pkg/domain"
	"github.com/fxpocket/fxpocket/pkg/provider"
)

const dateLayout = "2006-01-02"

// FrankfurterClient is a RateSource backed by a frankfurter-style REST
// service. It performs no retries and holds no state beyond the HTTP client.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFrankfurterClient creates a client with the configured base URL and
// connect/receive timeout.
func NewFrankfurterClient(cfg config.RateSourceConfig, logger *slog.Logger) *FrankfurterClient {
	return &FrankfurterClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger,
	}
}

// FetchLatest issues GET /latest?from={from}&to={to} and returns the decoded
// body uninterpreted.
func (c *FrankfurterClient) FetchLatest(ctx context.Context, from, to string) (*provider.LatestResponse, error) {
	url := fmt.Sprintf("%s/latest?from=%s&to=%s", c.baseURL, from, to)

	var out provider.LatestResponse
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched latest rate", "from", from, "to", to, "date", out.Date)
	return &out, nil
}

// FetchHistory issues GET /{start}..{end}?from={from}&to={to} with dates
// formatted YYYY-MM-DD.
func (c *FrankfurterClient) FetchHistory(ctx context.Context, from, to string, start, end time.Time) (*provider.HistoryResponse, error) {
	url := fmt.Sprintf("%s/%s..%s?from=%s&to=%s",
		c.baseURL, start.Format(dateLayout), end.Format(dateLayout), from, to)

	var out provider.HistoryResponse
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched rate history", "from", from, "to", to, "points", len(out.Rates))
	return &out, nil
}

func (c *FrankfurterClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnknown, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.mapTransportError(url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("GET %s: %w", url, domain.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("GET %s: %w", url, &domain.ServerError{StatusCode: resp.StatusCode})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: %w: %v", url, domain.ErrParse, err)
	}
	return nil
}

// mapTransportError folds transport failures into the closed taxonomy by
// outcome, never by message inspection.
func (c *FrankfurterClient) mapTransportError(url string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("GET %s: %w", url, domain.ErrCancelled)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.logger.Warn("rate source request timed out", "url", url)
		return fmt.Errorf("GET %s: %w", url, domain.ErrNetwork)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("GET %s: %w", url, domain.ErrNetwork)
	}

	// Anything else from the transport is a connection failure.
	c.logger.Warn("rate source unreachable", "url", url, "error", err)
	return fmt.Errorf("GET %s: %w", url, domain.ErrNetwork)
}
