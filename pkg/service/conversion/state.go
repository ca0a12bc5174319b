// Package conversion holds the screen-facing conversion state: the current
// pair, amount and result, published to subscribers as immutable snapshots.
package conversion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fxpocket/fxpocket/pkg/domain"
)

// RateLoader is the slice of the repository the state consumes.
type RateLoader interface {
	GetLatestRate(ctx context.Context, from, to string) (*domain.ExchangeRate, bool, error)
}

// Settings gates the auto-refresh timer.
type Settings interface {
	AutoRefresh(ctx context.Context) bool
}

// Snapshot is an immutable view of the conversion state. Whenever Rate is
// non-nil, Result == Amount * Rate.Rate.
type Snapshot struct {
	From      string
	To        string
	Amount    float64
	Result    float64
	Rate      *domain.ExchangeRate
	FromCache bool
	Loading   bool
	Err       error
}

// State drives a single conversion screen. All loads run asynchronously; a
// generation counter discards completions superseded by a newer request, so
// rapid currency switching never lets a stale response overwrite newer state.
type State struct {
	loader RateLoader
	logger *slog.Logger

	mu     sync.Mutex
	snap   Snapshot
	gen    uint64
	subs   map[uuid.UUID]chan Snapshot
	done   chan struct{}
	closed bool
}

// NewState creates a state for the given initial pair with amount 1.
func NewState(loader RateLoader, logger *slog.Logger, from, to string) *State {
	return &State{
		loader: loader,
		logger: logger,
		snap:   Snapshot{From: from, To: to, Amount: 1},
		subs:   make(map[uuid.UUID]chan Snapshot),
		done:   make(chan struct{}),
	}
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers a consumer. The current snapshot is delivered first,
// followed by every subsequent one. Slow consumers miss intermediate
// snapshots rather than blocking publishers.
func (s *State) Subscribe() (uuid.UUID, <-chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	ch := make(chan Snapshot, 16)
	s.subs[id] = ch
	ch <- s.snap
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (s *State) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *State) publishLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- s.snap:
		default:
		}
	}
}

// SetAmount updates the amount and recomputes the result locally when a rate
// is already loaded. No repository call is made.
func (s *State) SetAmount(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Amount = amount
	if s.snap.Rate != nil {
		s.snap.Result = amount * s.snap.Rate.Rate
	}
	s.publishLocked()
}

// SetFromCurrency changes the source currency and reloads the rate.
func (s *State) SetFromCurrency(ctx context.Context, code string) {
	s.mu.Lock()
	if s.snap.From == code {
		s.mu.Unlock()
		return
	}
	s.snap.From = code
	s.mu.Unlock()
	s.load(ctx)
}

// SetToCurrency changes the target currency and reloads the rate.
func (s *State) SetToCurrency(ctx context.Context, code string) {
	s.mu.Lock()
	if s.snap.To == code {
		s.mu.Unlock()
		return
	}
	s.snap.To = code
	s.mu.Unlock()
	s.load(ctx)
}

// Swap exchanges the pair and reloads.
func (s *State) Swap(ctx context.Context) {
	s.mu.Lock()
	s.snap.From, s.snap.To = s.snap.To, s.snap.From
	s.mu.Unlock()
	s.load(ctx)
}

// Refresh re-invokes the load unconditionally. It does not bypass the
// repository's cache read.
func (s *State) Refresh(ctx context.Context) {
	s.load(ctx)
}

func (s *State) load(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	from, to := s.snap.From, s.snap.To
	s.snap.Loading = true
	s.publishLocked()
	s.mu.Unlock()

	go func() {
		rate, fromCache, err := s.loader.GetLatestRate(ctx, from, to)

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen || s.closed {
			// Superseded by a newer request; drop the result.
			return
		}
		s.snap.Loading = false
		if err != nil {
			// Keep the last-known rate and result in place.
			s.snap.Err = err
			s.logger.Warn("rate load failed", "from", from, "to", to, "error", err)
			s.publishLocked()
			return
		}
		s.snap.Err = nil
		s.snap.Rate = rate
		s.snap.FromCache = fromCache
		s.snap.Result = s.snap.Amount * rate.Rate
		s.publishLocked()
	}()
}

// StartAutoRefresh runs a periodic reload of the current pair for as long as
// the auto-refresh preference holds true. The timer stops when ctx is
// cancelled or the state is closed.
func (s *State) StartAutoRefresh(ctx context.Context, interval time.Duration, settings Settings) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				if settings.AutoRefresh(ctx) {
					s.load(ctx)
				}
			}
		}
	}()
}

// Close tears the state down: the refresh timer stops and all subscriber
// channels close. In-flight loads are discarded on completion.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
