// Package store provides the local store backends: in-memory, Redis and a
// Postgres key/value table. All three share the key layout and serialization
// defined here and in pkg/store.
package store

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/fxpocket/fxpocket/pkg/domain"
)

// encodeRate serializes a rate for storage.
func encodeRate(rate *domain.ExchangeRate) (string, error) {
	b, err := json.Marshal(rate)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeRate deserializes a stored rate. A nil result with nil error means
// the entry is corrupt and must be treated as a miss.
func decodeRate(raw string) *domain.ExchangeRate {
	var rate domain.ExchangeRate
	if err := json.Unmarshal([]byte(raw), &rate); err != nil {
		return nil
	}
	return &rate
}

func encodeHistory(points []domain.RatePoint) (string, error) {
	b, err := json.Marshal(points)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeHistory deserializes a stored series; corrupt entries decode to nil.
func decodeHistory(raw string) []domain.RatePoint {
	var points []domain.RatePoint
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil
	}
	return points
}

func encodeMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// decodeMillis parses an epoch-millis value; the zero time signals a corrupt
// or absent entry.
func decodeMillis(raw string) time.Time {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
