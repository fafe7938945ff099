// AngelaMos | 2026
// handler_test.go

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/blogsy/internal/middleware"
	"github.com/carterperez-dev/blogsy/internal/plan"
)

type stubVerifier struct{}

func (stubVerifier) VerifySessionToken(
	_ context.Context,
	token string,
) (*middleware.SessionClaims, error) {
	return &middleware.SessionClaims{UserID: token, Email: token + "@example.com", Role: "user"}, nil
}

func newTestRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	NewHandler(f.orch, 1<<20).RegisterRoutes(r, middleware.Authenticator(stubVerifier{}))
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func multipartBody(t *testing.T, fileType string, payload []byte, videoURL string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if payload != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="talk.mp3"`)
		h.Set("Content-Type", fileType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write(payload)
	}
	if videoURL != "" {
		_ = mw.WriteField("video_url", videoURL)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func mp3Bytes() []byte {
	b := make([]byte, 4096)
	copy(b, "ID3\x03\x00\x00\x00\x00\x00\x00")
	return b
}

func TestSubmitHandlerMultipartFile(t *testing.T) {
	f := newFixture(t, plan.Starter)
	router := newTestRouter(f)

	body, contentType := multipartBody(t, "audio/mpeg", mp3Bytes(), "")
	req := httptest.NewRequest(http.MethodPost, "/generations", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer user_a")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp SubmitResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.PostID == "" || resp.Path != "/posts/"+resp.PostID {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSubmitHandlerStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		planID   plan.ID
		body     string
		prepare  func(*fixture)
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing input",
			planID:   plan.Pro,
			body:     `{}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "url import not in plan",
			planID:   plan.Starter,
			body:     `{"video_url":"https://youtu.be/abc"}`,
			wantCode: http.StatusForbidden,
			wantErr:  "QUOTA_EXCEEDED",
		},
		{
			name:     "upstream failure",
			planID:   plan.Pro,
			body:     `{"video_url":"https://youtu.be/abc"}`,
			prepare:  func(f *fixture) { f.transcriber.text = "" },
			wantCode: http.StatusBadGateway,
			wantErr:  "UPSTREAM_ERROR",
		},
		{
			name:     "already running",
			planID:   plan.Pro,
			body:     `{"video_url":"https://youtu.be/abc"}`,
			prepare:  func(f *fixture) { _, _ = f.guard.Acquire(context.Background(), "user_a") },
			wantCode: http.StatusConflict,
			wantErr:  "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.planID)
			if tt.prepare != nil {
				tt.prepare(f)
			}

			req := httptest.NewRequest(http.MethodPost, "/generations", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer user_a")
			rec := httptest.NewRecorder()
			newTestRouter(f).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Code != tt.wantErr || env.Error.Message == "" {
				t.Fatalf("error = %+v", env.Error)
			}
		})
	}
}

func TestCurrentReportsLatestRun(t *testing.T) {
	f := newFixture(t, plan.Starter)
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/generations/current", nil)
	req.Header.Set("Authorization", "Bearer user_a")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status before any run = %d, want 404", rec.Code)
	}

	if _, err := f.orch.Submit(context.Background(), Submission{UserID: "user_a", VideoURL: "https://youtu.be/abc"}); err == nil {
		t.Fatal("starter URL submission succeeded")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req.Clone(context.Background()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var run RunResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &run); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if run.State != StateFailed || run.Stage != StateValidating || run.Message == "" {
		t.Fatalf("run = %+v", run)
	}
}
