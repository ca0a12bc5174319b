// Package provider defines the contract for upstream exchange-rate sources.
package provider

import (
	"context"
	"time"
)

// LatestResponse is the decoded body of a latest-rate request, returned
// uninterpreted: the repository owns reading the rates map and date field.
type LatestResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// HistoryResponse is the decoded body of a date-range request. The outer map
// is keyed by "YYYY-MM-DD", the inner by currency code.
type HistoryResponse struct {
	Amount float64                       `json:"amount"`
	Base   string                        `json:"base"`
	Rates  map[string]map[string]float64 `json:"rates"`
}

// RateSource fetches rate data from an upstream service. Implementations map
// transport failures into the domain error taxonomy and never retry; retries,
// if any, belong to the caller.
type RateSource interface {
	// FetchLatest issues a latest-rate request for a currency pair.
	FetchLatest(ctx context.Context, from, to string) (*LatestResponse, error)

	// FetchHistory issues a date-range request covering [start, end].
	FetchHistory(ctx context.Context, from, to string, start, end time.Time) (*HistoryResponse, error)
}
