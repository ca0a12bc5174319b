// Package prefs exposes typed preference accessors over the local store.
// Every getter falls back to a hard-coded default when the store has no
// value; store failures degrade to the default rather than surfacing.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/fxpocket/fxpocket/pkg/currency"
	"github.com/fxpocket/fxpocket/pkg/domain"
	"github.com/fxpocket/fxpocket/pkg/store"
)

// ErrInvalidTheme indicates a theme outside {light, dark, system}.
var ErrInvalidTheme = errors.New("invalid theme")

// Service reads and writes user preferences.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService wires a preference service over a store.
func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

func (s *Service) getString(ctx context.Context, key, def string) string {
	v, ok, err := s.store.GetValue(ctx, key)
	if err != nil {
		s.logger.Warn("preference read failed, using default", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

// DefaultCurrency returns the preferred base currency, "USD" by default.
func (s *Service) DefaultCurrency(ctx context.Context) string {
	return s.getString(ctx, store.KeyDefaultCurrency, domain.DefaultCurrency)
}

// SetDefaultCurrency validates and stores the preferred base currency.
func (s *Service) SetDefaultCurrency(ctx context.Context, code string) error {
	code, err := currency.Parse(code)
	if err != nil {
		return err
	}
	return s.store.SetValue(ctx, store.KeyDefaultCurrency, code)
}

// Theme returns the UI theme, "system" by default.
func (s *Service) Theme(ctx context.Context) domain.Theme {
	t := domain.Theme(s.getString(ctx, store.KeyTheme, string(domain.DefaultTheme)))
	if !domain.ValidTheme(t) {
		return domain.DefaultTheme
	}
	return t
}

// SetTheme stores the UI theme.
func (s *Service) SetTheme(ctx context.Context, t domain.Theme) error {
	if !domain.ValidTheme(t) {
		return ErrInvalidTheme
	}
	return s.store.SetValue(ctx, store.KeyTheme, string(t))
}

// Locale returns the display locale, "en" by default.
func (s *Service) Locale(ctx context.Context) string {
	return s.getString(ctx, store.KeyLocale, domain.DefaultLocale)
}

// SetLocale stores the display locale.
func (s *Service) SetLocale(ctx context.Context, locale string) error {
	return s.store.SetValue(ctx, store.KeyLocale, locale)
}

// AutoRefresh reports whether the periodic refresh timer should run,
// true by default.
func (s *Service) AutoRefresh(ctx context.Context) bool {
	raw := s.getString(ctx, store.KeyAutoRefresh, strconv.FormatBool(domain.DefaultAutoRefresh))
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return domain.DefaultAutoRefresh
	}
	return v
}

// SetAutoRefresh stores the auto-refresh flag.
func (s *Service) SetAutoRefresh(ctx context.Context, enabled bool) error {
	return s.store.SetValue(ctx, store.KeyAutoRefresh, strconv.FormatBool(enabled))
}

// Favorites returns the favorite currency codes in insertion order; corrupt
// or absent entries decode to the empty list.
func (s *Service) Favorites(ctx context.Context) []string {
	raw, ok, err := s.store.GetValue(ctx, store.KeyFavorites)
	if err != nil || !ok {
		return []string{}
	}
	var favorites []string
	if err := json.Unmarshal([]byte(raw), &favorites); err != nil {
		s.logger.Warn("corrupt favorites entry treated as empty", "error", err)
		return []string{}
	}
	return favorites
}

// SaveFavorites persists the favorites list as-is.
func (s *Service) SaveFavorites(ctx context.Context, favorites []string) error {
	raw, err := json.Marshal(favorites)
	if err != nil {
		return err
	}
	return s.store.SetValue(ctx, store.KeyFavorites, string(raw))
}

// ToggleFavorite adds the code when absent and removes it when present,
// persisting and returning the updated list. Insertion order of the
// remaining entries is preserved.
func (s *Service) ToggleFavorite(ctx context.Context, code string) ([]string, error) {
	code, err := currency.Parse(code)
	if err != nil {
		return nil, err
	}

	favorites := s.Favorites(ctx)
	updated := make([]string, 0, len(favorites)+1)
	removed := false
	for _, f := range favorites {
		if f == code {
			removed = true
			continue
		}
		updated = append(updated, f)
	}
	if !removed {
		updated = append(updated, code)
	}

	if err := s.SaveFavorites(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// All gathers the full preference set in one call.
func (s *Service) All(ctx context.Context) domain.Preferences {
	return domain.Preferences{
		DefaultCurrency: s.DefaultCurrency(ctx),
		Theme:           s.Theme(ctx),
		Locale:          s.Locale(ctx),
		AutoRefresh:     s.AutoRefresh(ctx),
		Favorites:       s.Favorites(ctx),
	}
}
