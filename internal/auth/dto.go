// AngelaMos | 2026
// dto.go

package auth

import (
	"encoding/json"
	"strings"
)

const EventUserCreated = "user.created"

type identityEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type identityUser struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail prefers the address flagged primary, otherwise the first.
func (u identityUser) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if u.PrimaryEmailAddressID != "" && e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (u identityUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Event    string `json:"event"`
}
