package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fxpocket/fxpocket/pkg/domain"
	kv "github.com/fxpocket/fxpocket/pkg/store"
)

// MemoryStore implements the store contract in memory. It is the default
// backend when no Redis or database URL is configured, and the workhorse of
// the test suite.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
		now:  time.Now,
	}
}

func (m *MemoryStore) SaveRate(_ context.Context, rate *domain.ExchangeRate) error {
	raw, err := encodeRate(rate)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[kv.RateKey(rate.FromCurrency, rate.ToCurrency)] = raw
	m.data[kv.RateTimestampKey(rate.FromCurrency, rate.ToCurrency)] = encodeMillis(m.now())
	return nil
}

func (m *MemoryStore) GetRate(_ context.Context, from, to string) (*domain.ExchangeRate, error) {
	m.mu.RLock()
	raw, ok := m.data[kv.RateKey(from, to)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeRate(raw), nil
}

func (m *MemoryStore) IsFresh(_ context.Context, from, to string) bool {
	m.mu.RLock()
	raw, ok := m.data[kv.RateTimestampKey(from, to)]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	written := decodeMillis(raw)
	if written.IsZero() {
		return false
	}
	return m.now().Sub(written) < kv.FreshWindow
}

func (m *MemoryStore) SaveHistory(_ context.Context, from, to string, points []domain.RatePoint) error {
	raw, err := encodeHistory(points)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[kv.HistoryKey(from, to)] = raw
	return nil
}

func (m *MemoryStore) GetHistory(_ context.Context, from, to string) ([]domain.RatePoint, error) {
	m.mu.RLock()
	raw, ok := m.data[kv.HistoryKey(from, to)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeHistory(raw), nil
}

func (m *MemoryStore) GetValue(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) SetValue(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

func (m *MemoryStore) ClearRates(ctx context.Context) error {
	return m.deletePrefix(kv.RatePrefix)
}

func (m *MemoryStore) ClearHistory(ctx context.Context) error {
	return m.deletePrefix(kv.HistoryPrefix)
}

func (m *MemoryStore) deletePrefix(prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}
