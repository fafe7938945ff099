// AngelaMos | 2026
// stripe.go

package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"

	"github.com/carterperez-dev/blogsy/internal/core"
)

// StripeAPI is the slice of the Stripe API the webhook needs.
type StripeAPI interface {
	CheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	Customer(ctx context.Context, id string) (*stripe.Customer, error)
}

type StripeClient struct {
	sessions  *session.Client
	customers *customer.Client
}

func NewStripeClient(secretKey string) *StripeClient {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeClient{
		sessions:  &session.Client{B: backend, Key: secretKey},
		customers: &customer.Client{B: backend, Key: secretKey},
	}
}

// CheckoutSession fetches a session with its line items expanded.
func (c *StripeClient) CheckoutSession(
	ctx context.Context,
	id string,
) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	cs, err := c.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w: %w", id, core.ErrUpstream, err)
	}
	return cs, nil
}

func (c *StripeClient) Customer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cus, err := c.customers.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve customer %s: %w: %w", id, core.ErrUpstream, err)
	}
	return cus, nil
}
