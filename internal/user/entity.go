// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID         string    `db:"id"`
	UserID     *string   `db:"user_id"`
	Email      string    `db:"email"`
	FullName   *string   `db:"full_name"`
	PriceID    *string   `db:"price_id"`
	CustomerID *string   `db:"customer_id"`
	Status     string    `db:"status"`
	Role       string    `db:"role"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (u *User) IsCancelled() bool {
	return u.Status == StatusCancelled
}

// IdentityID is the identity provider subject, empty until linked.
func (u *User) IdentityID() string {
	return deref(u.UserID)
}

func (u *User) PlanPriceID() string {
	return deref(u.PriceID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// IdentityProfile is what the identity provider reports for a new account.
type IdentityProfile struct {
	IdentityID string
	Email      string
	FullName   string
}

// BillingProfile is what a completed checkout reports for a purchaser.
type BillingProfile struct {
	Email      string
	FullName   string
	PriceID    string
	CustomerID string
}
