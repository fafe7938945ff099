// AngelaMos | 2026
// handler_test.go

package storage

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func passThrough(next http.Handler) http.Handler { return next }

func imageRequest(t *testing.T, contentType string, body []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="pic"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes() []byte {
	b := make([]byte, 64)
	copy(b, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	return b
}

func TestUploadImage(t *testing.T) {
	store := newMemStore()
	r := chi.NewRouter()
	NewHandler(newTestUploader(store, 1<<20)).RegisterRoutes(r, passThrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, imageRequest(t, "image/png", pngBytes()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data Object `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.Data.Path, "image_") {
		t.Fatalf("path = %q, want image_ prefix", resp.Data.Path)
	}
	if _, ok := store.objects[resp.Data.Path]; !ok {
		t.Fatal("object not stored")
	}
}

func TestUploadImageRejects(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{
			name: "audio posing as image",
			req: func(t *testing.T) *http.Request {
				return imageRequest(t, "image/png", mp3Bytes(64))
			},
		},
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/images", strings.NewReader(""))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			r := chi.NewRouter()
			NewHandler(newTestUploader(store, 1<<20)).RegisterRoutes(r, passThrough)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, tt.req(t))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if len(store.objects) != 0 {
				t.Fatal("rejected upload was stored")
			}
		})
	}
}
