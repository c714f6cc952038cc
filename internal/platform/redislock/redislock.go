package redislock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/luminar-backend/internal/pkg/httpx"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// ErrNotAcquired is returned when the wait budget runs out before the lock
// frees up.
var ErrNotAcquired = errors.New("redislock: lock not acquired")

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type client interface {
	goredis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Close() error
}

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
	Poll      time.Duration
}

// Locker is a single-instance Redis lock: SET NX PX to take it, a
// compare-and-delete script to give it back. The TTL bounds how long a
// crashed holder can block others.
type Locker struct {
	log    *logger.Logger
	rdb    client
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewFromEnv returns nil, nil when REDIS_ADDR is unset.
func NewFromEnv(log *logger.Logger, ttl time.Duration) (*Locker, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}
	return New(log, Config{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		KeyPrefix: strings.TrimSpace(os.Getenv("REDIS_LOCK_PREFIX")),
		TTL:       ttl,
	})
}

func New(log *logger.Logger, cfg Config) (*Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	l := newLocker(log, rdb, cfg)
	log.Info("Redis lock initialized", "addr", cfg.Addr, "prefix", l.prefix, "ttl", l.ttl.String())
	return l, nil
}

func newLocker(log *logger.Logger, rdb client, cfg Config) *Locker {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "luminar:lock"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	poll := cfg.Poll
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	return &Locker{
		log:    log.With("service", "RedisLocker"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		poll:   poll,
	}
}

// Lock polls until key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("redis locker not initialized")
	}
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", fullKey, err)
		}
		if ok {
			break
		}
		if err := httpx.Sleep(ctx, l.poll); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
		}
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			l.log.Warn("redis lock release failed", "key", fullKey, "error", err)
		}
	}, nil
}

func (l *Locker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
