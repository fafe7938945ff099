// AngelaMos | 2026
// tracker.go

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/post"
)

const progressPrefix = "pipeline:run:"

// Tracker stores the latest run per user as a Redis hash.
type Tracker struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewTracker(client redis.Cmdable, ttl time.Duration) *Tracker {
	return &Tracker{client: client, ttl: ttl}
}

func (t *Tracker) Save(ctx context.Context, run *Run) error {
	key := progressPrefix + run.UserID

	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"state", string(run.State),
			"stage", string(run.Stage),
			"source", string(run.Source),
			"message", run.Message,
			"post_id", run.PostID,
			"started_at", run.StartedAt.UTC().Format(time.RFC3339Nano),
			"updated_at", run.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, t.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (t *Tracker) Get(ctx context.Context, userID string) (*Run, error) {
	fields, err := t.client.HGetAll(ctx, progressPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("run: %w", core.ErrNotFound)
	}

	run := &Run{
		UserID:  userID,
		State:   State(fields["state"]),
		Stage:   State(fields["stage"]),
		Source:  post.Source(fields["source"]),
		Message: fields["message"],
		PostID:  fields["post_id"],
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, fields["started_at"]) //nolint:errcheck // zero on corrupt field
	run.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"]) //nolint:errcheck // zero on corrupt field

	return run, nil
}
