// AngelaMos | 2026
// handler.go

package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/user"
)

const (
	maxWebhookBody  = 64 << 10
	signatureHeader = "Stripe-Signature"
	ledgerScope     = "billing:"
)

type SubscriptionSyncer interface {
	ApplyCheckout(ctx context.Context, p user.BillingProfile) (*user.User, error)
	CancelSubscription(ctx context.Context, customerID, email string) error
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Event    string `json:"event"`
}

// WebhookHandler receives signed Stripe events.
type WebhookHandler struct {
	secret string
	api    StripeAPI
	users  SubscriptionSyncer
	ledger *core.EventLedger
	logger *slog.Logger
}

func NewWebhookHandler(
	secret string,
	api StripeAPI,
	users SubscriptionSyncer,
	ledger *core.EventLedger,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		secret: secret,
		api:    api,
		users:  users,
		ledger: ledger,
		logger: logger,
	}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/billing", h.HandleWebhook)
}

func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	sig := r.Header.Get(signatureHeader)
	if sig == "" {
		core.BadRequest(w, "missing webhook signature")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		core.BadRequest(w, "unreadable request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, sig, h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.logger.Warn("billing webhook verification failed", "error", err)
		core.BadRequest(w, "invalid webhook signature")
		return
	}

	ctx := r.Context()
	eventType := string(event.Type)
	ack := WebhookResponse{Received: true, Event: eventType}

	if h.ledger != nil {
		first, err := h.ledger.FirstDelivery(ctx, ledgerScope+event.ID)
		if err != nil {
			h.logger.Warn("webhook ledger unavailable", "error", err)
		} else if !first {
			h.logger.Info("duplicate billing webhook ignored", "event_id", event.ID)
			core.OK(w, ack)
			return
		}
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = h.checkoutCompleted(ctx, event.Data.Raw)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = h.subscriptionDeleted(ctx, event.Data.Raw)
	default:
		h.logger.Debug("billing webhook ignored", "type", eventType)
	}

	switch {
	case err == nil:
		core.OK(w, ack)
	case errors.Is(err, core.ErrNotFound):
		h.logger.Warn("billing webhook matched no user", "event_id", event.ID, "type", eventType)
		core.OK(w, ack)
	case errors.Is(err, core.ErrInvalidInput):
		h.forget(ctx, event.ID)
		core.BadRequest(w, "incomplete billing event")
	default:
		h.forget(ctx, event.ID)
		h.logger.Error("billing webhook failed",
			"error", err,
			"event_id", event.ID,
			"type", eventType,
		)
		core.InternalServerError(w, err)
	}
}

func (h *WebhookHandler) checkoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var ref stripe.CheckoutSession
	if err := json.Unmarshal(raw, &ref); err != nil || ref.ID == "" {
		return fmt.Errorf("decode checkout session: %w", core.ErrInvalidInput)
	}

	cs, err := h.api.CheckoutSession(ctx, ref.ID)
	if err != nil {
		return err
	}

	profile := BillingProfileFromSession(cs)
	if profile.PriceID == "" {
		h.logger.Warn("checkout session has no price", "session_id", cs.ID)
	}

	_, err = h.users.ApplyCheckout(ctx, profile)
	return err
}

func (h *WebhookHandler) subscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", core.ErrInvalidInput)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("subscription %s has no customer: %w", sub.ID, core.ErrInvalidInput)
	}

	email := sub.Customer.Email
	if email == "" {
		cus, err := h.api.Customer(ctx, sub.Customer.ID)
		if err != nil {
			h.logger.Warn("customer lookup failed", "customer_id", sub.Customer.ID, "error", err)
		} else {
			email = cus.Email
		}
	}

	return h.users.CancelSubscription(ctx, sub.Customer.ID, email)
}

// BillingProfileFromSession extracts the purchaser and price from a
// checkout session retrieved with its line items.
func BillingProfileFromSession(cs *stripe.CheckoutSession) user.BillingProfile {
	p := user.BillingProfile{Email: cs.CustomerEmail}

	if cs.CustomerDetails != nil {
		if cs.CustomerDetails.Email != "" {
			p.Email = cs.CustomerDetails.Email
		}
		p.FullName = cs.CustomerDetails.Name
	}
	if cs.Customer != nil {
		p.CustomerID = cs.Customer.ID
	}
	if cs.LineItems != nil {
		for _, item := range cs.LineItems.Data {
			if item.Price != nil && item.Price.ID != "" {
				p.PriceID = item.Price.ID
				break
			}
		}
	}
	return p
}

func (h *WebhookHandler) forget(ctx context.Context, eventID string) {
	if h.ledger == nil {
		return
	}
	if err := h.ledger.Forget(ctx, ledgerScope+eventID); err != nil {
		h.logger.Warn("webhook ledger forget failed", "error", err)
	}
}
