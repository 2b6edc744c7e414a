package locker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/envutil"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

const keyPrefix = "subsets:lock:"

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisConfig struct {
	Addr  string
	TTL   time.Duration
	Wait  time.Duration
	Retry time.Duration
}

func RedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Addr:  strings.TrimSpace(envutil.String("REDIS_ADDR", "")),
		TTL:   envutil.Seconds("REDIS_LOCK_TTL_SECONDS", 30*time.Second),
		Wait:  envutil.Seconds("REDIS_LOCK_WAIT_SECONDS", 10*time.Second),
		Retry: 50 * time.Millisecond,
	}
}

// Redis is a Locker shared by every replica pointing at the same redis.
type Redis struct {
	log *logger.Logger
	rdb *goredis.Client
	cfg RedisConfig
}

func NewRedis(log *logger.Logger, cfg RedisConfig) (*Redis, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 10 * time.Second
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 50 * time.Millisecond
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{log: log.With("service", "RedisLocker"), rdb: rdb, cfg: cfg}, nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	full := keyPrefix + key
	deadline := time.Now().Add(r.cfg.Wait)

	for {
		ok, err := r.rdb.SetNX(ctx, full, token, r.cfg.TTL).Result()
		if err != nil {
			return nil, apierr.UpstreamCause("redis lock "+key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, apierr.Conflict("%s is being modified by another request, retry later", key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.cfg.Retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, r.rdb, []string{full}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
				r.log.Warn("redis unlock failed", "key", key, "error", err)
			}
		})
	}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
