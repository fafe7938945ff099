// AngelaMos | 2026
// handler.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/user"
)

const maxWebhookBody = 1 << 20

var requiredSvixHeaders = []string{"svix-id", "svix-timestamp", "svix-signature"}

type UserSyncer interface {
	HandleIdentityCreated(
		ctx context.Context,
		p user.IdentityProfile,
	) (*user.User, error)
}

// WebhookHandler receives signed identity provider events.
type WebhookHandler struct {
	wh     *svix.Webhook
	users  UserSyncer
	ledger *core.EventLedger
	logger *slog.Logger
}

func NewWebhookHandler(
	secret string,
	users UserSyncer,
	ledger *core.EventLedger,
	logger *slog.Logger,
) (*WebhookHandler, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("create identity webhook verifier: %w", err)
	}

	return &WebhookHandler{
		wh:     wh,
		users:  users,
		ledger: ledger,
		logger: logger,
	}, nil
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/identity", h.HandleWebhook)
}

func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	for _, name := range requiredSvixHeaders {
		if r.Header.Get(name) == "" {
			core.BadRequest(w, "missing webhook signature headers")
			return
		}
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		core.BadRequest(w, "unreadable request body")
		return
	}

	if err := h.wh.Verify(payload, r.Header); err != nil {
		h.logger.Warn("identity webhook verification failed", "error", err)
		core.BadRequest(w, "invalid webhook signature")
		return
	}

	var event identityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		core.BadRequest(w, "invalid webhook payload")
		return
	}

	ctx := r.Context()
	eventID := r.Header.Get("svix-id")

	if h.ledger != nil {
		first, err := h.ledger.FirstDelivery(ctx, "identity:"+eventID)
		if err != nil {
			h.logger.Warn("webhook ledger unavailable", "error", err)
		} else if !first {
			h.logger.Info("duplicate identity webhook ignored", "event_id", eventID)
			core.OK(w, WebhookResponse{Received: true, Event: event.Type})
			return
		}
	}

	if event.Type != EventUserCreated {
		h.logger.Debug("identity webhook ignored", "type", event.Type)
		core.OK(w, WebhookResponse{Received: true, Event: event.Type})
		return
	}

	if err := h.handleUserCreated(ctx, event.Data); err != nil {
		h.forget(ctx, eventID)

		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "user email is required")
			return
		}
		h.logger.Error("identity webhook failed",
			"error", err,
			"event_id", eventID,
		)
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, WebhookResponse{Received: true, Event: event.Type})
}

func (h *WebhookHandler) handleUserCreated(
	ctx context.Context,
	raw json.RawMessage,
) error {
	var data identityUser
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode user.created: %w", core.ErrInvalidInput)
	}

	_, err := h.users.HandleIdentityCreated(ctx, user.IdentityProfile{
		IdentityID: data.ID,
		Email:      data.PrimaryEmail(),
		FullName:   data.FullName(),
	})
	return err
}

func (h *WebhookHandler) forget(ctx context.Context, eventID string) {
	if h.ledger == nil {
		return
	}
	if err := h.ledger.Forget(ctx, "identity:"+eventID); err != nil {
		h.logger.Warn("webhook ledger forget failed", "error", err)
	}
}
