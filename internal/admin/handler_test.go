// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/blogsy/internal/middleware"
)

type roleVerifier struct{}

func (roleVerifier) VerifySessionToken(
	_ context.Context,
	token string,
) (*middleware.SessionClaims, error) {
	return &middleware.SessionClaims{UserID: "u_" + token, Role: token}, nil
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r,
		middleware.Authenticator(roleVerifier{}),
		middleware.RequireAdmin,
		func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		},
	)
	return r
}

func get(h http.Handler, path, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+role)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSystemStatsReportsPipeline(t *testing.T) {
	router := newRouter(NewHandler(HandlerConfig{
		DBPing:            func(context.Context) error { return errors.New("down") },
		ActiveGenerations: func(context.Context) (int, error) { return 3, nil },
	}))

	rec := get(router, "/admin/stats", "admin")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data SystemStatsResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Pipeline.ActiveGenerations != 3 {
		t.Fatalf("active = %d, want 3", resp.Data.Pipeline.ActiveGenerations)
	}
	if resp.Data.Database.Healthy {
		t.Fatal("database reported healthy after failed ping")
	}
	if !resp.Data.Redis.Healthy {
		t.Fatal("redis without a ping func should report healthy")
	}
}

func TestPipelineStatsUnavailable(t *testing.T) {
	router := newRouter(NewHandler(HandlerConfig{
		ActiveGenerations: func(context.Context) (int, error) { return 0, errors.New("redis down") },
	}))

	rec := get(router, "/admin/stats/pipeline", "admin")

	var resp struct {
		Data PipelineStats `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.ActiveGenerations != -1 {
		t.Fatalf("active = %d, want -1", resp.Data.ActiveGenerations)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	router := newRouter(NewHandler(HandlerConfig{}))

	if rec := get(router, "/admin/stats/runtime", "user"); rec.Code != http.StatusForbidden {
		t.Fatalf("user status = %d, want 403", rec.Code)
	}
	if rec := get(router, "/admin/ping", "user"); rec.Code != http.StatusForbidden {
		t.Fatalf("section user status = %d, want 403", rec.Code)
	}
	if rec := get(router, "/admin/ping", "admin"); rec.Code != http.StatusNoContent {
		t.Fatalf("section admin status = %d, want 204", rec.Code)
	}
}
