package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// RedisConfig configures the candle cache connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and pings the server.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "candle cache connected", "addr", cfg.Addr)
	return client, nil
}

// CachedFetcher serves recent candle requests from Redis and falls through
// to Next on a miss. Redis failures never fail a fetch.
type CachedFetcher struct {
	Next    Fetcher
	Client  *goredis.Client
	TTL     time.Duration
	Metrics *metrics.Metrics
}

func NewCachedFetcher(next Fetcher, client *goredis.Client, ttl time.Duration, m *metrics.Metrics) *CachedFetcher {
	return &CachedFetcher{Next: next, Client: client, TTL: ttl, Metrics: m}
}

func (c *CachedFetcher) Name() string { return "cached(" + c.Next.Name() + ")" }

func cacheKey(symbol string, granularity, count int) string {
	return fmt.Sprintf("candles:%s:%d:%d", symbol, granularity, count)
}

func (c *CachedFetcher) FetchCandles(ctx context.Context, symbol string, granularity, count int) ([]model.Candle, error) {
	key := cacheKey(symbol, granularity, count)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var candles []model.Candle
		if jerr := json.Unmarshal(raw, &candles); jerr == nil && len(candles) > 0 {
			c.Metrics.CacheHit()
			return candles, nil
		}
		logger.Warn(ctx, "discarding unreadable cache entry", "key", key)
	case !errors.Is(err, goredis.Nil):
		logger.Warn(ctx, "candle cache read failed", "key", key, "error", err)
	}
	c.Metrics.CacheMiss()

	candles, err := c.Next.FetchCandles(ctx, symbol, granularity, count)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(candles); err == nil {
		if err := c.Client.Set(ctx, key, payload, c.TTL).Err(); err != nil {
			logger.Warn(ctx, "candle cache write failed", "key", key, "error", err)
		}
	}
	return candles, nil
}

// Ping checks the Redis connection.
func (c *CachedFetcher) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
