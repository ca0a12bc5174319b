package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fxpocket/fxpocket/pkg/domain"
	kv "github.com/fxpocket/fxpocket/pkg/store"
)

// RedisStore implements the store contract on Redis. All keys live under a
// configurable namespace prefix so bulk clears never touch unrelated data.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore creates a store from redis options.
func NewRedisStore(opt *redis.Options, prefix string, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(opt),
		prefix: prefix,
		logger: logger,
	}
}

// NewRedisStoreFromURL creates a store from a redis:// URL.
func NewRedisStoreFromURL(url, prefix string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisStore(opt, prefix, logger), nil
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) SaveRate(ctx context.Context, rate *domain.ExchangeRate) error {
	raw, err := encodeRate(rate)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(kv.RateKey(rate.FromCurrency, rate.ToCurrency)), raw, 0)
	pipe.Set(ctx, r.key(kv.RateTimestampKey(rate.FromCurrency, rate.ToCurrency)), encodeMillis(time.Now()), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	raw, err := r.client.Get(ctx, r.key(kv.RateKey(from, to))).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rate := decodeRate(raw)
	if rate == nil {
		r.logger.Warn("corrupt rate entry treated as miss", "from", from, "to", to)
	}
	return rate, nil
}

func (r *RedisStore) IsFresh(ctx context.Context, from, to string) bool {
	raw, err := r.client.Get(ctx, r.key(kv.RateTimestampKey(from, to))).Result()
	if err != nil {
		return false
	}
	written := decodeMillis(raw)
	if written.IsZero() {
		return false
	}
	return time.Since(written) < kv.FreshWindow
}

func (r *RedisStore) SaveHistory(ctx context.Context, from, to string, points []domain.RatePoint) error {
	raw, err := encodeHistory(points)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(kv.HistoryKey(from, to)), raw, 0).Err()
}

func (r *RedisStore) GetHistory(ctx context.Context, from, to string) ([]domain.RatePoint, error) {
	raw, err := r.client.Get(ctx, r.key(kv.HistoryKey(from, to))).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	points := decodeHistory(raw)
	if points == nil {
		r.logger.Warn("corrupt history entry treated as miss", "from", from, "to", to)
	}
	return points, nil
}

func (r *RedisStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) SetValue(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisStore) ClearAll(ctx context.Context) error {
	return r.deletePrefix(ctx, "")
}

func (r *RedisStore) ClearRates(ctx context.Context) error {
	return r.deletePrefix(ctx, kv.RatePrefix)
}

func (r *RedisStore) ClearHistory(ctx context.Context) error {
	return r.deletePrefix(ctx, kv.HistoryPrefix)
}

func (r *RedisStore) deletePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, r.prefix+prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close releases the underlying client connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
