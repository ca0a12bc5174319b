// Package repository holds the cache-then-network-then-stale-fallback policy
// that sits between consumers and the rate source.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fxpocket/fxpocket/pkg/domain"
	"github.com/fxpocket/fxpocket/pkg/provider"
	"github.com/fxpocket/fxpocket/pkg/store"
)

const dateLayout = "2006-01-02"

// RatesRepository orchestrates the store and the rate source. It performs no
// retries; the stale-cache fallback is the only automatic recovery.
type RatesRepository struct {
	source provider.RateSource
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRatesRepository wires a repository over a source and a store.
func NewRatesRepository(source provider.RateSource, st store.Store, logger *slog.Logger) *RatesRepository {
	return &RatesRepository{
		source: source,
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// GetLatestRate resolves the current rate for a pair. The bool reports
// whether the value came from the local store.
//
// Any cached value is returned as-is, whatever its age: the store's freshness
// bookkeeping is written on save but deliberately not consulted here, so the
// auto-refresh timer is what produces fresh network reads once an entry
// exists.
func (r *RatesRepository) GetLatestRate(ctx context.Context, from, to string) (*domain.ExchangeRate, bool, error) {
	if from == to {
		return domain.NewIdentityRate(from), false, nil
	}

	if cached, err := r.store.GetRate(ctx, from, to); err == nil && cached != nil {
		r.logger.Debug("rate served from cache", "from", from, "to", to, "rate", cached.Rate)
		return cached, true, nil
	}

	rate, err := r.fetchAndStore(ctx, from, to)
	if err != nil {
		// Last-resort stale fallback before giving up.
		if cached, cerr := r.store.GetRate(ctx, from, to); cerr == nil && cached != nil {
			r.logger.Warn("serving stale cached rate after fetch failure",
				"from", from, "to", to, "error", err)
			return cached, true, nil
		}
		return nil, false, domain.Classify(err)
	}
	return rate, false, nil
}

func (r *RatesRepository) fetchAndStore(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	resp, err := r.source.FetchLatest(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rates map for %s/%s", domain.ErrParse, from, to)
	}
	value, ok := resp.Rates[to]
	if !ok {
		return nil, fmt.Errorf("%w: rates map missing %s", domain.ErrParse, to)
	}
	ts, err := time.Parse(dateLayout, resp.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", domain.ErrParse, resp.Date)
	}

	rate := &domain.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         value,
		Timestamp:    ts,
	}
	if err := r.store.SaveRate(ctx, rate); err != nil {
		// A failed save never fails the conversion.
		r.logger.Warn("failed to cache fetched rate", "from", from, "to", to, "error", err)
	}
	return rate, nil
}

// GetHistoricalRates returns the series for the last `days` days, cached
// indefinitely once fetched. A malformed or missing rates map yields an empty
// series, not an error.
func (r *RatesRepository) GetHistoricalRates(ctx context.Context, from, to string, days int) ([]domain.RatePoint, error) {
	if from == to {
		return identitySeries(r.now(), days), nil
	}

	if cached, err := r.store.GetHistory(ctx, from, to); err == nil && len(cached) > 0 {
		return cached, nil
	}

	end := r.now()
	start := end.AddDate(0, 0, -days)
	resp, err := r.source.FetchHistory(ctx, from, to, start, end)
	if err != nil {
		return nil, domain.Classify(err)
	}

	points := make([]domain.RatePoint, 0, len(resp.Rates))
	for dateStr, codes := range resp.Rates {
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}
		value, ok := codes[to]
		if !ok {
			continue
		}
		points = append(points, domain.RatePoint{Date: date, Value: value})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	// An empty series is never persisted: the store treats empty as "not
	// cached", so writing it would pin the miss and block later re-fetches.
	if len(points) > 0 {
		if err := r.store.SaveHistory(ctx, from, to, points); err != nil {
			r.logger.Warn("failed to cache rate history", "from", from, "to", to, "error", err)
		}
	}
	return points, nil
}

// identitySeries builds `days` 1.0-points dated consecutively ending today.
func identitySeries(now time.Time, days int) []domain.RatePoint {
	if days <= 0 {
		return []domain.RatePoint{}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	points := make([]domain.RatePoint, days)
	for i := range days {
		points[i] = domain.RatePoint{
			Date:  today.AddDate(0, 0, i-days+1),
			Value: 1.0,
		}
	}
	return points
}
