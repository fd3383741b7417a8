package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/logger"
)

const DEFAULT_KEY_PREFIX = "ff:market:limiter:"

// Decision is the answer to a single rate limit check
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter bounds how often a caller may hit an endpoint
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit.go -package=mocks -mock_names=Limiter=MockRateLimiter
type Limiter interface {
	// Allow consumes one request for key
	Allow(ctx context.Context, key string) (Decision, error)

	// Close stops the health check and closes the redis connection
	Close() error
}

// Config holds the per key limit
type Config struct {
	RequestsPerMinute   int
	Burst               int
	KeyPrefix           string
	HealthCheckInterval time.Duration
}

type limiter struct {
	config      Config
	redis       adapter.RedisClient
	distributed adapter.RedisRateLimiter

	mu    sync.Mutex
	local map[string]*rate.Limiter

	redisAvailable atomic.Bool
	closeOnce      sync.Once
	done           chan struct{}
}

// NewLimiter creates a limiter shared through redis. A nil client, or a
// redis that cannot be reached, makes the limiter count in process until
// redis answers again.
func NewLimiter(cfg Config, rc adapter.RedisClient) (Limiter, error) {
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests_per_minute must be positive")
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerMinute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DEFAULT_KEY_PREFIX
	}
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = 10 * time.Second
	}

	l := &limiter{
		config: cfg,
		redis:  rc,
		local:  make(map[string]*rate.Limiter),
		done:   make(chan struct{}),
	}

	if rc == nil {
		logger.Info("Rate limiter running in process only")
		return l, nil
	}

	l.distributed = rc.NewRateLimiter()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, will use local fallback", zap.Error(err))
	} else {
		l.redisAvailable.Store(true)
	}

	go l.monitorRedisHealth()

	return l, nil
}

func (l *limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.redisAvailable.Load() {
		res, err := l.distributed.Allow(ctx, l.config.KeyPrefix+key, redis_rate.Limit{
			Rate:   l.config.RequestsPerMinute,
			Burst:  l.config.Burst,
			Period: time.Minute,
		})
		if err == nil {
			return Decision{
				Allowed:    res.Allowed > 0,
				Remaining:  res.Remaining,
				RetryAfter: max(res.RetryAfter, 0),
			}, nil
		}
		if ctx.Err() != nil {
			return Decision{}, ctx.Err()
		}

		l.redisAvailable.Store(false)
		logger.WarnCtx(ctx, "Redis rate limiter error, falling back to local",
			zap.String("key", key),
			zap.Error(err))
	}

	return l.allowLocal(key), nil
}

func (l *limiter) allowLocal(key string) Decision {
	l.mu.Lock()
	lim, ok := l.local[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.config.RequestsPerMinute)), l.config.Burst)
		l.local[key] = lim
	}
	l.mu.Unlock()

	r := lim.Reserve()
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return Decision{Allowed: false, RetryAfter: delay}
	}

	return Decision{Allowed: true, Remaining: int(lim.Tokens())}
}

// monitorRedisHealth periodically pings redis and switches back to the shared limit when it recovers
func (l *limiter) monitorRedisHealth() {
	ticker := time.NewTicker(l.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := l.redis.Ping(ctx).Err()
		cancel()

		available := err == nil
		if !l.redisAvailable.Swap(available) && available {
			logger.Info("Redis connection restored")
		}
	}
}

func (l *limiter) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		if l.redis != nil {
			err = l.redis.Close()
		}
	})
	return err
}
