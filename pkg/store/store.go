// Package store defines the local key/value persistence contract shared by
// all store backends.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fxpocket/fxpocket/pkg/domain"
)

// FreshWindow is the cache freshness horizon: an entry written less than this
// long ago counts as fresh. IsFresh is the sole freshness gate; GetRate never
// enforces it.
const FreshWindow = 5 * time.Minute

// Key prefixes of the persisted layout. Bulk clears are prefix-scoped.
const (
	RatePrefix    = "rate_"
	HistoryPrefix = "history_"
	PrefPrefix    = "pref_"
)

// Preference keys.
const (
	KeyDefaultCurrency = PrefPrefix + "default_currency"
	KeyTheme           = PrefPrefix + "theme"
	KeyLocale          = PrefPrefix + "locale"
	KeyAutoRefresh     = PrefPrefix + "auto_refresh"
	KeyFavorites       = PrefPrefix + "favorites"
)

// RateKey returns the storage key for a cached pair rate.
func RateKey(from, to string) string {
	return fmt.Sprintf("%s%s_%s", RatePrefix, from, to)
}

// RateTimestampKey returns the storage key holding the epoch-millis write
// time of the matching rate entry.
func RateTimestampKey(from, to string) string {
	return RateKey(from, to) + "_timestamp"
}

// HistoryKey returns the storage key for a cached historical series.
func HistoryKey(from, to string) string {
	return fmt.Sprintf("%s%s_%s", HistoryPrefix, from, to)
}

// Store is durable key/value persistence surviving process restarts. Absent
// and corrupt entries are cache misses, never errors; rates carry freshness
// bookkeeping, history does not.
type Store interface {
	// SaveRate persists a rate together with the current wall-clock write
	// time.
	SaveRate(ctx context.Context, rate *domain.ExchangeRate) error

	// GetRate returns the stored rate regardless of age, or (nil, nil)
	// when absent or unreadable.
	GetRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error)

	// IsFresh reports whether a write time exists for the pair and is
	// younger than FreshWindow.
	IsFresh(ctx context.Context, from, to string) bool

	// SaveHistory persists a historical series for the pair.
	SaveHistory(ctx context.Context, from, to string, points []domain.RatePoint) error

	// GetHistory returns the cached series, or an empty slice when absent
	// or unreadable.
	GetHistory(ctx context.Context, from, to string) ([]domain.RatePoint, error)

	// GetValue returns a scalar value and whether it was present.
	GetValue(ctx context.Context, key string) (string, bool, error)

	// SetValue stores a scalar value.
	SetValue(ctx context.Context, key, value string) error

	// ClearAll wipes every key, preferences included.
	ClearAll(ctx context.Context) error

	// ClearRates removes rate entries and their timestamps only.
	ClearRates(ctx context.Context) error

	// ClearHistory removes cached historical series only.
	ClearHistory(ctx context.Context) error
}
