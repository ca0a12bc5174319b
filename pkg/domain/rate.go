package domain

import "time"

// Freshness horizons for a rate's own timestamp. These drive UI-facing
// indicators only; cache freshness is a separate concern owned by the store.
const (
	LiveWindow  = 2 * time.Minute
	StaleWindow = 10 * time.Minute
)

// ExchangeRate is an immutable snapshot of a conversion rate: the number of
// ToCurrency units per 1 FromCurrency unit. A newer fetch supersedes it with a
// fresh instance; nothing mutates an existing one.
type ExchangeRate struct {
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Rate         float64   `json:"rate"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewIdentityRate synthesizes the rate for a same-currency conversion.
func NewIdentityRate(code string) *ExchangeRate {
	return &ExchangeRate{
		FromCurrency: code,
		ToCurrency:   code,
		Rate:         1.0,
		Timestamp:    time.Now(),
	}
}

// IsLive reports whether the rate's own timestamp is recent enough to present
// as live.
func (r *ExchangeRate) IsLive() bool {
	return time.Since(r.Timestamp) < LiveWindow
}

// IsStale reports whether the rate's own timestamp has aged past the stale
// horizon.
func (r *ExchangeRate) IsStale() bool {
	return time.Since(r.Timestamp) > StaleWindow
}

// RatePoint is a single observation in a historical series.
type RatePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
