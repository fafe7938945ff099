// AngelaMos | 2026
// quota.go

package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/post"
)

var (
	ErrPostLimitReached = fmt.Errorf(
		"%w: post limit reached",
		core.ErrQuotaExceeded,
	)
	ErrURLImportsNotAllowed = fmt.Errorf(
		"%w: plan does not include url imports",
		core.ErrQuotaExceeded,
	)
	ErrURLImportLimitReached = fmt.Errorf(
		"%w: monthly url import limit reached",
		core.ErrQuotaExceeded,
	)
)

type PostCounter interface {
	CountByUser(ctx context.Context, userID string, since *time.Time) (int, error)
	CountByUserAndSource(
		ctx context.Context,
		userID string,
		source post.Source,
		year int,
		month time.Month,
	) (int, error)
}

type Checker struct {
	posts PostCounter
}

func NewChecker(posts PostCounter) *Checker {
	return &Checker{posts: posts}
}

// Usage is the dashboard view of how much of a plan has been consumed.
// A limit of Unlimited means no cap.
type Usage struct {
	Plan          Plan `json:"plan"`
	PostsUsed     int  `json:"posts_used"`
	PostsLimit    int  `json:"posts_limit"`
	URLImportUsed int  `json:"url_imports_used"`
	URLImportCap  int  `json:"url_imports_limit"`
}

// CheckSubmission reports whether userID may start another generation
// from source under p. URL limits are checked before post limits.
func (c *Checker) CheckSubmission(
	ctx context.Context,
	userID string,
	p Plan,
	source post.Source,
	now time.Time,
) error {
	if source == post.SourceURL {
		if !p.AllowsURLImports() {
			return ErrURLImportsNotAllowed
		}

		if p.MaxURLImports != Unlimited {
			y, m, _ := now.UTC().Date()
			used, err := c.posts.CountByUserAndSource(ctx, userID, post.SourceURL, y, m)
			if err != nil {
				return fmt.Errorf("count url imports: %w", err)
			}
			if used >= p.MaxURLImports {
				return ErrURLImportLimitReached
			}
		}
	}

	if p.UnlimitedPosts() {
		return nil
	}

	used, err := c.posts.CountByUser(ctx, userID, windowStart(p.PostWindow, now))
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}

	if used >= p.MaxPosts {
		return ErrPostLimitReached
	}

	return nil
}

func (c *Checker) Usage(
	ctx context.Context,
	userID string,
	p Plan,
	now time.Time,
) (*Usage, error) {
	posts, err := c.posts.CountByUser(ctx, userID, windowStart(p.PostWindow, now))
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	y, m, _ := now.UTC().Date()
	imports, err := c.posts.CountByUserAndSource(ctx, userID, post.SourceURL, y, m)
	if err != nil {
		return nil, fmt.Errorf("count url imports: %w", err)
	}

	return &Usage{
		Plan:          p,
		PostsUsed:     posts,
		PostsLimit:    p.MaxPosts,
		URLImportUsed: imports,
		URLImportCap:  p.MaxURLImports,
	}, nil
}

func windowStart(w Window, now time.Time) *time.Time {
	if w != WindowMonthly {
		return nil
	}
	start := MonthStart(now)
	return &start
}

// MonthStart is the first instant of now's calendar month in UTC.
func MonthStart(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
