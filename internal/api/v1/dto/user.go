package dto

import "time"

// ValidateSessionRequest is sent by sibling apps to check a session token.
type ValidateSessionRequest struct {
	Token string `json:"token"`
}

// SessionUserDTO is the public part of a user.
type SessionUserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ValidateSessionResponse is returned by /validate-session.
type ValidateSessionResponse struct {
	Valid bool            `json:"valid"`
	User  *SessionUserDTO `json:"user,omitempty"`
	Error string          `json:"error,omitempty"`
}

// UserResponseDTO is returned by /users/me
type UserResponseDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	HasStripeCustomer bool      `json:"hasStripeCustomer"`
	CreatedAt         time.Time `json:"createdAt"`
}

// PlanDTO is one entry of the public plan list.
type PlanDTO struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amountCents"`
	Interval    string `json:"interval"`
	PerSeat     bool   `json:"perSeat"`
}
