package model

import (
	"slices"
	"time"
)

// SubscriptionStatus mirrors the status Stripe reports for a subscription.
type SubscriptionStatus string

const (
	StatusActive            SubscriptionStatus = "active"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusUnpaid            SubscriptionStatus = "unpaid"
	StatusPaused            SubscriptionStatus = "paused"
)

var (
	// CurrentStatuses are the statuses that grant access to the paid plan.
	CurrentStatuses = []SubscriptionStatus{StatusActive, StatusTrialing, StatusPastDue}
	// HistoryStatuses are the terminal statuses listed in subscription history.
	HistoryStatuses = []SubscriptionStatus{StatusCanceled, StatusIncompleteExpired, StatusUnpaid}
)

// IsCurrent reports whether s is in the current status set.
func (s SubscriptionStatus) IsCurrent() bool {
	return slices.Contains(CurrentStatuses, s)
}

// IsHistory reports whether s is in the terminal status set.
func (s SubscriptionStatus) IsHistory() bool {
	return slices.Contains(HistoryStatuses, s)
}

// Subscription is the local record of a Stripe subscription.
type Subscription struct {
	ID                     string             `db:"id" json:"id"`
	UserID                 string             `db:"user_id" json:"user_id"`
	StripeSubscriptionID   string             `db:"stripe_subscription_id" json:"stripe_subscription_id"`
	StripePriceID          string             `db:"stripe_price_id" json:"stripe_price_id"`
	StripeCurrentPeriodEnd *time.Time         `db:"stripe_current_period_end" json:"stripe_current_period_end,omitempty"`
	Status                 SubscriptionStatus `db:"status" json:"status"`
	Plan                   string             `db:"plan" json:"plan"`
	Quantity               int                `db:"quantity" json:"quantity"`
	CancelAtPeriodEnd      bool               `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CreatedAt              time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `db:"updated_at" json:"updated_at"`
}

// SubscriptionUpdate carries the Stripe-owned fields overwritten on reconciliation.
// A nil Plan leaves the stored plan untouched.
type SubscriptionUpdate struct {
	StripePriceID          string
	StripeCurrentPeriodEnd *time.Time
	Status                 SubscriptionStatus
	Quantity               int
	CancelAtPeriodEnd      bool
	Plan                   *string
}

// WebhookEvent is a ledger entry for a verified Stripe event.
type WebhookEvent struct {
	EventID     string     `db:"event_id" json:"event_id"`
	EventType   string     `db:"event_type" json:"event_type"`
	Attempts    int        `db:"attempts" json:"attempts"`
	ReceivedAt  time.Time  `db:"received_at" json:"received_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	LastError   *string    `db:"last_error" json:"last_error,omitempty"`
}
