// AngelaMos | 2026
// handler_test.go

package plan

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestListPlans(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(testCatalog()).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Data []Plan `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 3 {
		t.Fatalf("plans = %d, want 3", len(resp.Data))
	}
	if resp.Data[2].ID != Pro || resp.Data[2].PriceID != "price_pro" {
		t.Fatalf("pro plan = %+v", resp.Data[2])
	}
}
