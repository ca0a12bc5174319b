package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fxpocket/fxpocket/pkg/domain"
	kv "github.com/fxpocket/fxpocket/pkg/store"
)

// KVEntry is the single table behind the Postgres-backed store.
type KVEntry struct {
	Key       string `gorm:"column:key;primaryKey;size:255"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

// TableName overrides the gorm default.
func (KVEntry) TableName() string {
	return "kv_entries"
}

// GormStore implements the store contract on a relational database through
// gorm. Every key becomes a row; prefix clears become LIKE deletes.
type GormStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormStore wraps an open gorm handle. Call AutoMigrate once at startup
// before first use.
func NewGormStore(db *gorm.DB, logger *slog.Logger) *GormStore {
	return &GormStore{db: db, logger: logger}
}

// AutoMigrate creates the kv_entries table when missing.
func (g *GormStore) AutoMigrate() error {
	return g.db.AutoMigrate(&KVEntry{})
}

func (g *GormStore) set(ctx context.Context, key, value string) error {
	entry := KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (g *GormStore) get(ctx context.Context, key string) (string, bool, error) {
	var entry KVEntry
	err := g.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (g *GormStore) SaveRate(ctx context.Context, rate *domain.ExchangeRate) error {
	raw, err := encodeRate(rate)
	if err != nil {
		return err
	}
	if err := g.set(ctx, kv.RateKey(rate.FromCurrency, rate.ToCurrency), raw); err != nil {
		return err
	}
	return g.set(ctx, kv.RateTimestampKey(rate.FromCurrency, rate.ToCurrency), encodeMillis(time.Now()))
}

func (g *GormStore) GetRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	raw, ok, err := g.get(ctx, kv.RateKey(from, to))
	if err != nil || !ok {
		return nil, err
	}
	rate := decodeRate(raw)
	if rate == nil {
		g.logger.Warn("corrupt rate entry treated as miss", "from", from, "to", to)
	}
	return rate, nil
}

func (g *GormStore) IsFresh(ctx context.Context, from, to string) bool {
	raw, ok, err := g.get(ctx, kv.RateTimestampKey(from, to))
	if err != nil || !ok {
		return false
	}
	written := decodeMillis(raw)
	if written.IsZero() {
		return false
	}
	return time.Since(written) < kv.FreshWindow
}

func (g *GormStore) SaveHistory(ctx context.Context, from, to string, points []domain.RatePoint) error {
	raw, err := encodeHistory(points)
	if err != nil {
		return err
	}
	return g.set(ctx, kv.HistoryKey(from, to), raw)
}

func (g *GormStore) GetHistory(ctx context.Context, from, to string) ([]domain.RatePoint, error) {
	raw, ok, err := g.get(ctx, kv.HistoryKey(from, to))
	if err != nil || !ok {
		return nil, err
	}
	points := decodeHistory(raw)
	if points == nil {
		g.logger.Warn("corrupt history entry treated as miss", "from", from, "to", to)
	}
	return points, nil
}

func (g *GormStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	return g.get(ctx, key)
}

func (g *GormStore) SetValue(ctx context.Context, key, value string) error {
	return g.set(ctx, key, value)
}

func (g *GormStore) ClearAll(ctx context.Context) error {
	return g.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&KVEntry{}).Error
}

func (g *GormStore) ClearRates(ctx context.Context) error {
	return g.deletePrefix(ctx, kv.RatePrefix)
}

func (g *GormStore) ClearHistory(ctx context.Context) error {
	return g.deletePrefix(ctx, kv.HistoryPrefix)
}

func (g *GormStore) deletePrefix(ctx context.Context, prefix string) error {
	return g.db.WithContext(ctx).
		Where("key LIKE ?", prefix+"%").
		Delete(&KVEntry{}).Error
}
