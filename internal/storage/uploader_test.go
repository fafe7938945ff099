// AngelaMos | 2026
// uploader_test.go

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Put(_ context.Context, path string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if m.failErr != nil {
		return m.failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	m.types[path] = contentType
	return nil
}

func (m *memStore) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

func (m *memStore) Ping(context.Context) error { return nil }

func mp3Bytes(size int) []byte {
	b := make([]byte, size)
	copy(b, []byte("ID3\x03\x00\x00\x00\x00\x00\x00"))
	return b
}

func newTestUploader(store ObjectStore, max int64) *Uploader {
	return NewUploader(store, max, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStoreAudio(t *testing.T) {
	store := newMemStore()
	u := newTestUploader(store, 1<<20)
	data := mp3Bytes(8192)

	obj, err := u.Store(context.Background(), KindMedia, Upload{
		Body:         bytes.NewReader(data),
		Size:         int64(len(data)),
		DeclaredType: "audio/mpeg",
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if obj.ContentType != "audio/mpeg" {
		t.Fatalf("content type = %q", obj.ContentType)
	}
	if !strings.HasPrefix(obj.Path, "media_") || !strings.HasSuffix(obj.Path, ".mp3") {
		t.Fatalf("path = %q", obj.Path)
	}
	if obj.URL != "https://cdn.example.com/"+obj.Path {
		t.Fatalf("url = %q", obj.URL)
	}
	if !bytes.Equal(store.objects[obj.Path], data) {
		t.Fatal("stored bytes differ from upload")
	}
}

func TestStoreRejectsDisguisedFile(t *testing.T) {
	u := newTestUploader(newMemStore(), 1<<20)

	_, err := u.Store(context.Background(), KindMedia, Upload{
		Body:         strings.NewReader("just some plain text pretending to be audio"),
		Size:         44,
		DeclaredType: "audio/mpeg",
	})
	if !errors.Is(err, ErrBadType) {
		t.Fatalf("err = %v, want ErrBadType", err)
	}
}

func TestValidate(t *testing.T) {
	u := newTestUploader(newMemStore(), 500)

	tests := []struct {
		name     string
		size     int64
		declared string
		want     error
	}{
		{"ok audio", 100, "audio/webm", nil},
		{"ok video with params", 100, "video/mp4; codecs=avc1", nil},
		{"unknown declared", 100, "application/octet-stream", nil},
		{"empty", 0, "audio/webm", ErrEmptyFile},
		{"too large", 501, "audio/webm", ErrTooLarge},
		{"pdf", 100, "application/pdf", ErrBadType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := u.Validate(KindMedia, tt.size, tt.declared)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStoreEnforcesLimitWhileStreaming(t *testing.T) {
	u := newTestUploader(newMemStore(), 4096)

	_, err := u.Store(context.Background(), KindMedia, Upload{
		Body: bytes.NewReader(mp3Bytes(10000)),
		Size: -1,
	})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestStoreImage(t *testing.T) {
	store := newMemStore()
	u := newTestUploader(store, 1<<20)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	obj, err := u.Store(context.Background(), KindImage, Upload{
		Body:         bytes.NewReader(png),
		Size:         int64(len(png)),
		DeclaredType: "image/png",
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if obj.ContentType != "image/png" {
		t.Fatalf("content type = %q", obj.ContentType)
	}
}
