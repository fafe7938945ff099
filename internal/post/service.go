// AngelaMos | 2026
// service.go

package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/blogsy/internal/core"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get(ctx context.Context, id, userID string) (*Post, error) {
	if userID == "" {
		return nil, fmt.Errorf("get post: %w", core.ErrUnauthorized)
	}
	return s.repo.GetForUser(ctx, id, userID)
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Summary, int, error) {
	if params.UserID == "" {
		return nil, 0, fmt.Errorf("list posts: %w", core.ErrUnauthorized)
	}
	return s.repo.ListByUser(ctx, params)
}

// UpdateContent replaces the markdown body and re-derives the title from
// its first segment. Concurrent edits are last-write-wins.
func (s *Service) UpdateContent(
	ctx context.Context,
	id, userID, content string,
) (*Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("update content: empty body: %w", core.ErrInvalidInput)
	}

	title := ExtractTitle(content)
	if err := s.repo.UpdateContent(ctx, id, userID, title, content); err != nil {
		return nil, err
	}

	s.logger.Info("post content updated", "post_id", id, "user_id", userID)
	return s.repo.GetForUser(ctx, id, userID)
}

func (s *Service) UpdateSEO(
	ctx context.Context,
	id, userID string,
	req UpdateSEORequest,
) (*Post, error) {
	seo := SEOFields{
		SEOTitle:        strings.TrimSpace(req.SEOTitle),
		MetaDescription: strings.TrimSpace(req.MetaDescription),
		Tags:            NormalizeTags(req.Tags),
	}

	if err := s.repo.UpdateSEO(ctx, id, userID, seo); err != nil {
		return nil, err
	}

	s.logger.Info("post seo updated",
		"post_id", id,
		"user_id", userID,
		"tags", len(seo.Tags),
	)
	return s.repo.GetForUser(ctx, id, userID)
}
