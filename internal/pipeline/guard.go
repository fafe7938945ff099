// AngelaMos | 2026
// guard.go

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/blogsy/internal/core"
)

const guardPrefix = "pipeline:guard:"

var ErrSubmissionInProgress = fmt.Errorf(
	"%w: a generation is already running for this account",
	core.ErrConflict,
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Guard allows one in-flight submission per user. The lease expires on
// its own if the holder dies before releasing it.
type Guard struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewGuard(client redis.Cmdable, ttl time.Duration) *Guard {
	return &Guard{client: client, ttl: ttl}
}

type Lease struct {
	key   string
	token string
}

func (g *Guard) Acquire(ctx context.Context, userID string) (*Lease, error) {
	lease := &Lease{key: guardPrefix + userID, token: uuid.NewString()}

	ok, err := g.client.SetNX(ctx, lease.key, lease.token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire guard: %w", err)
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}
	return lease, nil
}

// Release drops the lease only if it is still the holder's.
func (g *Guard) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, g.client, []string{lease.key}, lease.token).Err(); err != nil {
		return fmt.Errorf("release guard: %w", err)
	}
	return nil
}

// Active counts leases currently held.
func (g *Guard) Active(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := g.client.Scan(ctx, cursor, guardPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scan guards: %w", err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}
