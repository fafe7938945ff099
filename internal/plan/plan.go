// AngelaMos | 2026
// plan.go

package plan

import (
	"github.com/carterperez-dev/blogsy/internal/config"
)

type ID string

const (
	Starter ID = "starter"
	Basic   ID = "basic"
	Pro     ID = "pro"
)

// Window is the period a post allowance applies to.
type Window string

const (
	WindowLifetime Window = "lifetime"
	WindowMonthly  Window = "monthly"
)

const Unlimited = -1

type Plan struct {
	ID            ID       `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	Items         []string `json:"items"`
	PriceID       string   `json:"price_id,omitempty"`
	PaymentLink   string   `json:"payment_link,omitempty"`
	MaxPosts      int      `json:"max_posts"`
	PostWindow    Window   `json:"post_window"`
	MaxURLImports int      `json:"max_url_imports"`
}

func (p Plan) UnlimitedPosts() bool {
	return p.MaxPosts == Unlimited
}

func (p Plan) AllowsURLImports() bool {
	return p.MaxURLImports != 0
}

func (p Plan) IsPaid() bool {
	return p.ID != Starter
}

// Catalog is the static plan table with price ids bound from config.
type Catalog struct {
	plans []Plan
}

func NewCatalog(cfg config.PlansConfig) *Catalog {
	return &Catalog{
		plans: []Plan{
			{
				ID:            Starter,
				Name:          "Starter",
				Description:   "Try Blogsy for free",
				Price:         "0",
				Items:         []string{"3 Blog Posts", "File uploads only"},
				MaxPosts:      3,
				PostWindow:    WindowLifetime,
				MaxURLImports: 0,
			},
			{
				ID:            Basic,
				Name:          "Basic",
				Description:   "Get started with Blogsy",
				Price:         "9.99",
				Items:         []string{"3 Blog Posts per month", "3 Transcriptions per month"},
				PriceID:       cfg.BasicPriceID,
				PaymentLink:   cfg.BasicPaymentLink,
				MaxPosts:      3,
				PostWindow:    WindowMonthly,
				MaxURLImports: 0,
			},
			{
				ID:            Pro,
				Name:          "Pro",
				Description:   "All blog posts let's go!",
				Price:         "19.99",
				Items:         []string{"Unlimited Blog Posts", "5 YouTube imports per month"},
				PriceID:       cfg.ProPriceID,
				PaymentLink:   cfg.ProPaymentLink,
				MaxPosts:      Unlimited,
				PostWindow:    WindowMonthly,
				MaxURLImports: 5,
			},
		},
	}
}

// Resolve returns the effective plan for a stored price id. Cancelled
// subscriptions and unknown or empty price ids resolve to Starter.
func (c *Catalog) Resolve(priceID string, cancelled bool) Plan {
	if cancelled || priceID == "" {
		return c.starter()
	}

	for _, p := range c.plans {
		if p.PriceID != "" && p.PriceID == priceID {
			return p
		}
	}

	return c.starter()
}

func (c *Catalog) Get(id ID) (Plan, bool) {
	for _, p := range c.plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

func (c *Catalog) All() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

func (c *Catalog) starter() Plan {
	return c.plans[0]
}
