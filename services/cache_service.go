package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// CacheService provides Redis caching functionality with connection pooling and retry logic
type CacheService struct {
	logger *gecho.Logger
	config *structs.Config
	client *redis.Client
}

func NewCacheService(logger *gecho.Logger, cfg *structs.Config) *CacheService {
	return &CacheService{
		logger: logger,
		config: cfg,
		client: getRedisClient(cfg.Cache),
	}
}

// NewCacheServiceWithClient is used when the caller owns the Redis client.
func NewCacheServiceWithClient(logger *gecho.Logger, cfg *structs.Config, client *redis.Client) *CacheService {
	return &CacheService{
		logger: logger,
		config: cfg,
		client: client,
	}
}

// getRedisClient returns a singleton Redis client with proper connection pooling
func getRedisClient(cfg *structs.CacheConfig) *redis.Client {
	redisOnce.Do(func() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,

			// Connection pool settings
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			PoolTimeout:     cfg.PoolTimeout,
			ConnMaxIdleTime: cfg.IdleTimeout,

			// Timeouts
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,

			// Retry settings
			MaxRetries:      cfg.MaxRetries,
			MinRetryBackoff: cfg.MinRetryBackoff,
			MaxRetryBackoff: cfg.MaxRetryBackoff,
		})
	})
	return redisClient
}

// Close closes the Redis connection pool
func (cs *CacheService) Close() error {
	if cs.client != nil {
		return cs.client.Close()
	}
	return nil
}

// withRetry executes a Redis operation with exponential backoff retry logic
func (cs *CacheService) withRetry(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on the last attempt
		if attempt == maxRetries {
			break
		}

		// Only retry on network/connection errors, not on logical errors like key not found
		if !isRetryableCacheError(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffWithJitter(attempt)):
		}
	}

	return fmt.Errorf("redis operation failed after %d retries: %w", maxRetries, lastErr)
}

// backoffWithJitter returns 100ms * 2^attempt capped at 2s, jittered to [50%, 100%].
func backoffWithJitter(attempt int) time.Duration {
	const (
		base       = 100  // ms
		maxBackoff = 2000 // ms
	)
	backoff := min(base*(1<<attempt), maxBackoff)

	var jitterBytes [4]byte
	if _, err := rand.Read(jitterBytes[:]); err != nil {
		return time.Duration(backoff) * time.Millisecond
	}
	jitter := int(binary.BigEndian.Uint32(jitterBytes[:]) % uint32(backoff/2+1))

	return time.Duration(backoff/2+jitter) * time.Millisecond
}

// isRetryableCacheError determines if an error is worth retrying
func isRetryableCacheError(err error) bool {
	if err == nil {
		return false
	}

	// Don't retry on nil results (key not found)
	if errors.Is(err, redis.Nil) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Retry on network/connection errors
	errStr := err.Error()
	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"broken pipe",
		"no such host",
		"network is unreachable",
	}

	for _, retryableErr := range retryableErrors {
		if strings.Contains(errStr, retryableErr) {
			return true
		}
	}

	return false
}

// Set sets a key with TTL and automatic retry logic
func (cs *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return cs.withRetry(ctx, func() error {
		return cs.client.Set(ctx, key, value, ttl).Err()
	}, 3)
}

// Get retrieves a key with automatic retry logic. A missing key yields "".
func (cs *CacheService) Get(ctx context.Context, key string) (string, error) {
	var result string

	err := cs.withRetry(ctx, func() error {
		val, err := cs.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			result = ""
			return nil // Don't retry on key not found
		}
		if err != nil {
			return err
		}
		result = val
		return nil
	}, 3)

	if err != nil {
		return "", err
	}

	return result, nil
}

func companyNameKey(id uuid.UUID) string {
	return fmt.Sprintf("company:name:%s", id.String())
}

// GetCompanyName returns the cached display name of a company, "" when not cached.
func (cs *CacheService) GetCompanyName(ctx context.Context, id uuid.UUID) (string, error) {
	return cs.Get(ctx, companyNameKey(id))
}

func (cs *CacheService) SetCompanyName(ctx context.Context, id uuid.UUID, name string) error {
	return cs.Set(ctx, companyNameKey(id), name, cs.config.Cache.CompanyNameTTL)
}

// IncrementRateLimit atomically increments a rate limit counter
func (cs *CacheService) IncrementRateLimit(ctx context.Context, ip, endpoint string, ttl time.Duration) (int, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", ip, endpoint)

	var result int64
	err := cs.withRetry(ctx, func() error {
		pipe := cs.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		// NX keeps the window anchored at the first hit
		pipe.ExpireNX(ctx, key, ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		result = incr.Val()
		return nil
	}, 3)

	return int(result), err
}

// Ping tests the Redis connection
func (cs *CacheService) Ping(ctx context.Context) error {
	return cs.withRetry(ctx, func() error {
		return cs.client.Ping(ctx).Err()
	}, 1)
}

// GetConnectionStats returns Redis connection pool statistics
func (cs *CacheService) GetConnectionStats() map[string]any {
	stats := cs.client.PoolStats()

	return map[string]any{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
