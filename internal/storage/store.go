// AngelaMos | 2026
// store.go

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	supabase "github.com/supabase-community/supabase-go"

	"github.com/carterperez-dev/blogsy/internal/config"
)

// ObjectStore persists uploaded media and exposes it at a public URL.
type ObjectStore interface {
	Put(ctx context.Context, path string, body io.Reader, contentType string) error
	PublicURL(path string) string
	Ping(ctx context.Context) error
}

// SupabaseStore keeps objects in a Supabase Storage bucket.
type SupabaseStore struct {
	client     *storage_go.Client
	bucket     string
	publicBase string
}

func NewSupabaseStore(cfg config.StorageConfig) (*SupabaseStore, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}

	return &SupabaseStore{
		client:     client.Storage,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put uploads body to path. The storage client takes no context, so the
// body stops yielding bytes once ctx is done and the upload fails.
func (s *SupabaseStore) Put(
	ctx context.Context,
	path string,
	body io.Reader,
	contentType string,
) error {
	upsert := false
	cacheControl := "3600"

	_, err := s.client.UploadFile(s.bucket, path, contextReader{ctx: ctx, r: body}, storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("upload %s: %w", path, ctxErr)
		}
		return fmt.Errorf("upload %s: %w", path, err)
	}

	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// PublicURL prefers the configured CDN base and falls back to the
// bucket's public object URL.
func (s *SupabaseStore) PublicURL(path string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + strings.TrimLeft(path, "/")
	}
	return s.client.GetPublicUrl(s.bucket, path).SignedURL
}

func (s *SupabaseStore) Ping(_ context.Context) error {
	if _, err := s.client.GetBucket(s.bucket); err != nil {
		return fmt.Errorf("get bucket %s: %w", s.bucket, err)
	}
	return nil
}

var _ ObjectStore = (*SupabaseStore)(nil)
