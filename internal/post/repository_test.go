// AngelaMos | 2026
// repository_test.go

package post

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/migrations"
)

func setupTestDB(t *testing.T) *core.Database {
	t.Helper()

	dsn := os.Getenv("BLOGSY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BLOGSY_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL:          dsn,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Skipf("database unreachable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(migrations.FS, core.MigrateUp); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func TestRepositoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()
	userID := "user_" + uuid.NewString()

	latest, err := repo.LatestContentForUser(ctx, userID)
	if err != nil || latest != "" {
		t.Fatalf("latest for new user = %q, %v", latest, err)
	}

	id, err := repo.Insert(ctx, &Post{
		UserID:  userID,
		Title:   "First",
		Content: "# First\n\nBody",
		Source:  SourceURL,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.GetForUser(ctx, id, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Fatalf("tags = %#v, want empty list", got.Tags)
	}

	latest, err = repo.LatestContentForUser(ctx, userID)
	if err != nil || latest != "# First\n\nBody" {
		t.Fatalf("latest = %q, %v", latest, err)
	}

	now := time.Now().UTC()
	n, err := repo.CountByUserAndSource(ctx, userID, SourceURL, now.Year(), now.Month())
	if err != nil || n != 1 {
		t.Fatalf("url count = %d, %v", n, err)
	}

	n, err = repo.CountByUserAndSource(ctx, userID, SourceFile, now.Year(), now.Month())
	if err != nil || n != 0 {
		t.Fatalf("file count = %d, %v", n, err)
	}

	err = repo.UpdateSEO(ctx, id, userID, SEOFields{
		SEOTitle: "SEO",
		Tags:     Tags{"#Go"},
	})
	if err != nil {
		t.Fatalf("update seo: %v", err)
	}

	err = repo.UpdateContent(ctx, id, "someone_else", "x", "y")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign update err = %v, want ErrNotFound", err)
	}
}
