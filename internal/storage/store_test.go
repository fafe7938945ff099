// AngelaMos | 2026
// store_test.go

package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/carterperez-dev/blogsy/internal/config"
)

type fakeBucket struct {
	mu       sync.Mutex
	uploads  map[string]string
	requests int
}

func newSupabaseTestStore(t *testing.T) (*SupabaseStore, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{uploads: map[string]string{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket.mu.Lock()
		defer bucket.mu.Unlock()
		bucket.requests++

		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		bucket.uploads[r.URL.Path] = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"Key":"media/a.mp3"}`)
	}))
	t.Cleanup(srv.Close)

	store, err := NewSupabaseStore(config.StorageConfig{
		SupabaseURL: srv.URL,
		SupabaseKey: "service-key",
		Bucket:      "media",
	})
	if err != nil {
		t.Fatalf("NewSupabaseStore: %v", err)
	}
	return store, bucket
}

func TestSupabasePut(t *testing.T) {
	store, bucket := newSupabaseTestStore(t)

	err := store.Put(context.Background(), "a.mp3", strings.NewReader("audio"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := bucket.uploads["/storage/v1/object/media/a.mp3"]; got != "audio" {
		t.Fatalf("uploads = %v", bucket.uploads)
	}
}

func TestSupabasePutStopsOnCancelledContext(t *testing.T) {
	store, bucket := newSupabaseTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "a.mp3", strings.NewReader("audio"), "audio/mpeg")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	if got, ok := bucket.uploads["/storage/v1/object/media/a.mp3"]; ok && got != "" {
		t.Fatalf("object stored after cancellation: %q", got)
	}
}
