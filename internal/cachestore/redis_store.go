package cachestore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig configures the Redis-backed Store.
type RedisConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
}

// RedisStore is a Store backed by Redis native key expiry.
type RedisStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisStore dials Redis and verifies connectivity with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:       addr(cfg),
		DB:         cfg.DB,
		Password:   cfg.Password,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	logger.Info("redis cache store connected",
		zap.String("addr", opts.Addr), zap.Int("db", opts.DB))

	return &RedisStore{rdb: rdb, logger: logger}, nil
}

func addr(cfg RedisConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	return host + ":" + strconv.Itoa(port)
}

// Get implements Store. A connection error degrades to a miss, never
// a blocking failure, per the store's availability contract.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Warn("redis get degraded to miss", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	return val, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	var exp time.Duration
	if ttlSeconds > 0 {
		exp = time.Duration(ttlSeconds) * time.Second
	}
	return s.rdb.Set(ctx, key, value, exp).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, prefix string) error {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Keys implements Store.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// TTL implements Store.
func (s *RedisStore) TTL(ctx context.Context, key string) (int, error) {
	d, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return -2, err
	}
	// go-redis reports the "no expiry" and "missing key" replies as the
	// raw durations -1 and -2, not as seconds.
	switch d {
	case -1:
		return -1, nil
	case -2:
		return -2, nil
	default:
		return int(d.Seconds()), nil
	}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
