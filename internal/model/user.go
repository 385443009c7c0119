package model

import "time"

// User represents an account owned by the auth service.
type User struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	StripeCustomerID *string   `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CustomerID returns the stored Stripe customer id or "".
func (u *User) CustomerID() string {
	if u == nil || u.StripeCustomerID == nil {
		return ""
	}
	return *u.StripeCustomerID
}

// Session is a login session issued by the auth service.
type Session struct {
	ID        string    `db:"id" json:"id"`
	Token     string    `db:"token" json:"token"`
	UserID    string    `db:"user_id" json:"user_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	User      User      `json:"user"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
