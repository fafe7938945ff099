// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/blogsy/internal/plan"
)

type UserResponse struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id,omitempty"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name,omitempty"`
	PriceID    string    `json:"price_id,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	Status     string    `json:"status"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MeResponse feeds the dashboard: the account, its effective plan, and
// how much of the plan is used this period.
type MeResponse struct {
	User  UserResponse `json:"user"`
	Plan  plan.Plan    `json:"plan"`
	Usage *plan.Usage  `json:"usage"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Status   string `json:"status"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		IdentityID: deref(u.UserID),
		Email:      u.Email,
		FullName:   deref(u.FullName),
		PriceID:    deref(u.PriceID),
		CustomerID: deref(u.CustomerID),
		Status:     u.Status,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
