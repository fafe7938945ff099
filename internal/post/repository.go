// AngelaMos | 2026
// repository.go

package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/blogsy/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, p *Post) (string, error)
	LatestContentForUser(ctx context.Context, userID string) (string, error)
	CountByUser(ctx context.Context, userID string, since *time.Time) (int, error)
	CountByUserAndSource(
		ctx context.Context,
		userID string,
		source Source,
		year int,
		month time.Month,
	) (int, error)
	GetForUser(ctx context.Context, id, userID string) (*Post, error)
	ListByUser(ctx context.Context, params ListParams) ([]Summary, int, error)
	UpdateContent(ctx context.Context, id, userID, title, content string) error
	UpdateSEO(ctx context.Context, id, userID string, seo SEOFields) error
}

// SEOFields are the editable search metadata of a post.
type SEOFields struct {
	SEOTitle        string
	MetaDescription string
	Tags            Tags
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, p *Post) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Tags == nil {
		p.Tags = Tags{}
	}
	if !p.Source.Valid() {
		return "", fmt.Errorf("insert post: source %q: %w", p.Source, core.ErrInvalidInput)
	}

	query := `
		INSERT INTO posts (id, user_id, title, seo_title, content,
		                   meta_description, tags, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id string
	err := r.db.GetContext(ctx, &id, query,
		p.ID,
		p.UserID,
		p.Title,
		p.SEOTitle,
		p.Content,
		p.MetaDescription,
		p.Tags,
		p.Source,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("insert post: %w", core.ErrNoRowReturned)
	}
	if err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("insert post: %w", core.ErrNoRowReturned)
	}

	return id, nil
}

func (r *repository) LatestContentForUser(
	ctx context.Context,
	userID string,
) (string, error) {
	query := `
		SELECT content
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var content string
	err := r.db.GetContext(ctx, &content, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest post content: %w", err)
	}

	return content, nil
}

func (r *repository) CountByUser(
	ctx context.Context,
	userID string,
	since *time.Time,
) (int, error) {
	query := `SELECT COUNT(*) FROM posts WHERE user_id = $1`
	args := []any{userID}

	if since != nil {
		query += ` AND created_at >= $2`
		args = append(args, since.UTC())
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}

	return count, nil
}

func (r *repository) CountByUserAndSource(
	ctx context.Context,
	userID string,
	source Source,
	year int,
	month time.Month,
) (int, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `
		SELECT COUNT(*)
		FROM posts
		WHERE user_id = $1
		  AND source = $2
		  AND created_at >= $3
		  AND created_at < $4`

	var count int
	err := r.db.GetContext(ctx, &count, query, userID, source, start, end)
	if err != nil {
		return 0, fmt.Errorf("count posts by source: %w", err)
	}

	return count, nil
}

func (r *repository) GetForUser(
	ctx context.Context,
	id, userID string,
) (*Post, error) {
	query := `
		SELECT id, user_id, title, seo_title, content, meta_description,
		       tags, source, created_at, updated_at
		FROM posts
		WHERE id = $1 AND user_id = $2`

	var p Post
	err := r.db.GetContext(ctx, &p, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get post: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &p, nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	params ListParams,
) ([]Summary, int, error) {
	params.Normalize()

	var total int
	countQuery := `SELECT COUNT(*) FROM posts WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, params.UserID); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := `
		SELECT id, title, seo_title, meta_description, tags, source,
		       created_at, updated_at
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	posts := []Summary{}
	err := r.db.SelectContext(ctx, &posts, query,
		params.UserID,
		params.PageSize,
		params.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	return posts, total, nil
}

func (r *repository) UpdateContent(
	ctx context.Context,
	id, userID, title, content string,
) error {
	query := `
		UPDATE posts
		SET content = $3, title = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`

	return r.execOne(ctx, "update post content", query, id, userID, content, title)
}

func (r *repository) UpdateSEO(
	ctx context.Context,
	id, userID string,
	seo SEOFields,
) error {
	if seo.Tags == nil {
		seo.Tags = Tags{}
	}

	query := `
		UPDATE posts
		SET seo_title = $3, meta_description = $4, tags = $5,
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2`

	return r.execOne(ctx, "update post seo", query,
		id,
		userID,
		seo.SEOTitle,
		seo.MetaDescription,
		seo.Tags,
	)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
