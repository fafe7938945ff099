// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/blogsy/internal/config"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.ClientName = "blogsy-api"
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{Client: client}, nil
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

// EventLedger remembers delivered webhook event ids so provider retries
// of an already-processed delivery are acknowledged without side effects.
type EventLedger struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewEventLedger(
	client redis.Cmdable,
	prefix string,
	ttl time.Duration,
) *EventLedger {
	return &EventLedger{client: client, prefix: prefix, ttl: ttl}
}

// FirstDelivery records eventID and reports whether this is the first time
// it has been seen.
func (l *EventLedger) FirstDelivery(
	ctx context.Context,
	eventID string,
) (bool, error) {
	key := l.prefix + ":" + HashToken(eventID)

	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record event %s: %w", eventID, err)
	}

	return ok, nil
}

// Forget drops eventID so a failed delivery can be processed on retry.
func (l *EventLedger) Forget(ctx context.Context, eventID string) error {
	key := l.prefix + ":" + HashToken(eventID)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("forget event %s: %w", eventID, err)
	}
	return nil
}
