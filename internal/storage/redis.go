package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wallet-radar/internal/config"
	"github.com/wallet-radar/internal/models"
)

// Cache keys.
const (
	KeyLatestPortfolio = "portfolio:latest"
	KeyQualifiedList   = "wallets:qualified"
)

// RedisCache wraps the Redis client
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxConnections,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// NewRedisCacheFromClient wraps an existing client. Used by tests with
// miniredis.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Client returns the underlying Redis client
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

// Ping checks if Redis is reachable
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// SetJSON marshals a value and stores it under key with the configured TTL.
func (r *RedisCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

// GetJSON retrieves and unmarshals a value. Returns (false, nil) on a cache
// miss.
func (r *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value for %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value for %s: %w", key, err)
	}
	return true, nil
}

// Del deletes one or more keys
func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// Exists checks if a key exists
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	return count > 0, err
}

// SetLatestPortfolio caches the most recent portfolio snapshot.
func (r *RedisCache) SetLatestPortfolio(ctx context.Context, p *models.PortfolioModel) error {
	return r.SetJSON(ctx, KeyLatestPortfolio, p)
}

// GetLatestPortfolio retrieves the cached portfolio snapshot, if any.
func (r *RedisCache) GetLatestPortfolio(ctx context.Context) (*models.PortfolioModel, bool, error) {
	var p models.PortfolioModel
	ok, err := r.GetJSON(ctx, KeyLatestPortfolio, &p)
	if err != nil || !ok {
		return nil, false, err
	}
	return &p, true, nil
}

// SetQualifiedWallets caches the qualified wallet list from the latest scan.
func (r *RedisCache) SetQualifiedWallets(ctx context.Context, wallets []models.Wallet) error {
	return r.SetJSON(ctx, KeyQualifiedList, wallets)
}

// GetQualifiedWallets retrieves the cached qualified wallet list.
func (r *RedisCache) GetQualifiedWallets(ctx context.Context) ([]models.Wallet, bool, error) {
	var wallets []models.Wallet
	ok, err := r.GetJSON(ctx, KeyQualifiedList, &wallets)
	if err != nil || !ok {
		return nil, false, err
	}
	return wallets, true, nil
}

// InvalidateScanResults drops cache entries derived from a scan run.
func (r *RedisCache) InvalidateScanResults(ctx context.Context) error {
	return r.Del(ctx, KeyLatestPortfolio, KeyQualifiedList)
}
