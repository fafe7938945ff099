// AngelaMos | 2026
// handler_test.go

package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/user"
)

var testWebhookSecret = "whsec_" + base64.StdEncoding.EncodeToString(
	[]byte("identity-webhook-test-secret"),
)

type recordingSyncer struct {
	profiles []user.IdentityProfile
	err      error
}

func (r *recordingSyncer) HandleIdentityCreated(
	_ context.Context,
	p user.IdentityProfile,
) (*user.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if p.Email == "" {
		return nil, core.ErrInvalidInput
	}
	r.profiles = append(r.profiles, p)
	return &user.User{ID: "row_1", Email: p.Email}, nil
}

func newWebhookFixture(t *testing.T) (*WebhookHandler, *recordingSyncer) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	syncer := &recordingSyncer{}
	h, err := NewWebhookHandler(
		testWebhookSecret,
		syncer,
		core.NewEventLedger(rdb, "webhook", time.Hour),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	if err != nil {
		t.Fatalf("NewWebhookHandler: %v", err)
	}
	return h, syncer
}

func signedRequest(t *testing.T, msgID string, payload []byte) *http.Request {
	t.Helper()

	wh, err := svix.NewWebhook(testWebhookSecret)
	if err != nil {
		t.Fatalf("svix: %v", err)
	}

	now := time.Now()
	sig, err := wh.Sign(msgID, now, payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", bytes.NewReader(payload))
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("svix-signature", sig)
	return req
}

const userCreatedPayload = `{
	"type": "user.created",
	"data": {
		"id": "user_2abc",
		"first_name": "Ada",
		"last_name": "Lovelace",
		"email_addresses": [{"id": "idn_1", "email_address": "ada@example.com"}]
	}
}`

func TestIdentityWebhookUserCreated(t *testing.T) {
	h, syncer := newWebhookFixture(t)

	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, signedRequest(t, "msg_1", []byte(userCreatedPayload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(syncer.profiles) != 1 {
		t.Fatalf("synced %d profiles, want 1", len(syncer.profiles))
	}

	got := syncer.profiles[0]
	if got.IdentityID != "user_2abc" || got.Email != "ada@example.com" || got.FullName != "Ada Lovelace" {
		t.Fatalf("profile = %+v", got)
	}
}

func TestIdentityWebhookReplayIgnored(t *testing.T) {
	h, syncer := newWebhookFixture(t)

	for range 2 {
		rec := httptest.NewRecorder()
		h.HandleWebhook(rec, signedRequest(t, "msg_dup", []byte(userCreatedPayload)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	if len(syncer.profiles) != 1 {
		t.Fatalf("synced %d profiles, want 1", len(syncer.profiles))
	}
}

func TestIdentityWebhookMissingHeaders(t *testing.T) {
	h, _ := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", bytes.NewBufferString(userCreatedPayload))
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIdentityWebhookBadSignature(t *testing.T) {
	h, syncer := newWebhookFixture(t)

	req := signedRequest(t, "msg_2", []byte(userCreatedPayload))
	req.Header.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString([]byte("forged")))

	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(syncer.profiles) != 0 {
		t.Fatal("forged event was processed")
	}
}

func TestIdentityWebhookMissingEmail(t *testing.T) {
	h, _ := newWebhookFixture(t)

	payload := []byte(`{"type":"user.created","data":{"id":"user_x","email_addresses":[]}}`)
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, signedRequest(t, "msg_3", payload))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIdentityWebhookOtherEventsAcknowledged(t *testing.T) {
	h, syncer := newWebhookFixture(t)

	payload := []byte(`{"type":"session.created","data":{}}`)
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, signedRequest(t, "msg_4", payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(syncer.profiles) != 0 {
		t.Fatal("unrelated event synced a user")
	}
}
