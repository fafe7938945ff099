// AngelaMos | 2026
// handler_test.go

package billing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/user"
)

const testSecret = "whsec_billing_test"

type fakeStripe struct {
	sessions  map[string]*stripe.CheckoutSession
	customers map[string]*stripe.Customer
}

func (f *fakeStripe) CheckoutSession(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	cs, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, core.ErrUpstream)
	}
	return cs, nil
}

func (f *fakeStripe) Customer(_ context.Context, id string) (*stripe.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, core.ErrUpstream)
	}
	return c, nil
}

type cancelCall struct {
	customerID string
	email      string
}

type recordingUsers struct {
	checkouts []user.BillingProfile
	cancels   []cancelCall
	cancelErr error
}

func (r *recordingUsers) ApplyCheckout(_ context.Context, p user.BillingProfile) (*user.User, error) {
	r.checkouts = append(r.checkouts, p)
	return &user.User{ID: "row_1", Email: p.Email}, nil
}

func (r *recordingUsers) CancelSubscription(_ context.Context, customerID, email string) error {
	r.cancels = append(r.cancels, cancelCall{customerID: customerID, email: email})
	return r.cancelErr
}

func newFixture(t *testing.T) (*WebhookHandler, *fakeStripe, *recordingUsers) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	api := &fakeStripe{
		sessions: map[string]*stripe.CheckoutSession{
			"cs_1": {
				ID:              "cs_1",
				Customer:        &stripe.Customer{ID: "cus_1"},
				CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "Buyer@Example.com", Name: "Ada Buyer"},
				LineItems: &stripe.LineItemList{Data: []*stripe.LineItem{
					{Price: &stripe.Price{ID: "price_pro"}},
				}},
			},
		},
		customers: map[string]*stripe.Customer{
			"cus_1": {ID: "cus_1", Email: "buyer@example.com"},
		},
	}
	users := &recordingUsers{}

	h := NewWebhookHandler(
		testSecret,
		api,
		users,
		core.NewEventLedger(rdb, "webhook", time.Hour),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return h, api, users
}

func signedRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func serve(h *WebhookHandler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	return rec
}

const checkoutEvent = `{
	"id": "evt_checkout_1",
	"object": "event",
	"type": "checkout.session.completed",
	"data": {"object": {"id": "cs_1", "object": "checkout.session"}}
}`

func TestCheckoutCompletedAppliesPlan(t *testing.T) {
	h, _, users := newFixture(t)

	rec := serve(h, signedRequest(t, checkoutEvent))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if len(users.checkouts) != 1 {
		t.Fatalf("checkouts = %d", len(users.checkouts))
	}
	got := users.checkouts[0]
	want := user.BillingProfile{
		Email:      "Buyer@Example.com",
		FullName:   "Ada Buyer",
		PriceID:    "price_pro",
		CustomerID: "cus_1",
	}
	if got != want {
		t.Fatalf("profile = %+v, want %+v", got, want)
	}
}

func TestCheckoutReplayIsIgnored(t *testing.T) {
	h, _, users := newFixture(t)

	for range 2 {
		if rec := serve(h, signedRequest(t, checkoutEvent)); rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if len(users.checkouts) != 1 {
		t.Fatalf("checkouts = %d, want 1", len(users.checkouts))
	}
}

func TestCheckoutUpstreamFailureIsRetryable(t *testing.T) {
	h, api, users := newFixture(t)
	delete(api.sessions, "cs_1")

	if rec := serve(h, signedRequest(t, checkoutEvent)); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	api.sessions["cs_1"] = &stripe.CheckoutSession{ID: "cs_1", CustomerEmail: "late@example.com"}
	if rec := serve(h, signedRequest(t, checkoutEvent)); rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200", rec.Code)
	}
	if len(users.checkouts) != 1 || users.checkouts[0].Email != "late@example.com" {
		t.Fatalf("checkouts = %+v", users.checkouts)
	}
}

func TestSubscriptionDeletedCancels(t *testing.T) {
	h, _, users := newFixture(t)

	payload := `{
		"id": "evt_sub_1",
		"object": "event",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "object": "subscription", "customer": "cus_1"}}
	}`

	rec := serve(h, signedRequest(t, payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if len(users.cancels) != 1 || users.cancels[0] != (cancelCall{customerID: "cus_1", email: "buyer@example.com"}) {
		t.Fatalf("cancels = %+v", users.cancels)
	}
}

func TestSubscriptionDeletedUnknownUserAcknowledged(t *testing.T) {
	h, _, users := newFixture(t)
	users.cancelErr = core.ErrNotFound

	payload := `{"id":"evt_sub_2","object":"event","type":"customer.subscription.deleted",
		"data":{"object":{"id":"sub_2","object":"subscription","customer":"cus_missing"}}}`

	if rec := serve(h, signedRequest(t, payload)); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if users.cancels[0].email != "" {
		t.Fatalf("email = %q, want empty after failed lookup", users.cancels[0].email)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, _, users := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader([]byte(checkoutEvent)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	if rec := serve(h, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader([]byte(checkoutEvent)))
	if rec := serve(h, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("unsigned status = %d, want 400", rec.Code)
	}

	if len(users.checkouts) != 0 {
		t.Fatal("unverified event applied")
	}
}

func TestUnhandledEventAcknowledged(t *testing.T) {
	h, _, users := newFixture(t)

	payload := `{"id":"evt_x","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`
	if rec := serve(h, signedRequest(t, payload)); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(users.checkouts)+len(users.cancels) != 0 {
		t.Fatal("unhandled event had side effects")
	}
}
