package dto

import (
	"time"

	"plandera/internal/model"
)

// SubscriptionStatusDTO is the compact view used by feature gates.
type SubscriptionStatusDTO struct {
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
}

// SubscriptionStatusResponse wraps the current subscription, which is null
// for users without one.
type SubscriptionStatusResponse struct {
	Subscription *SubscriptionStatusDTO `json:"subscription"`
}

// SubscriptionItemDTO describes one subscription record.
type SubscriptionItemDTO struct {
	ID                string     `json:"id"`
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	Quantity          int        `json:"quantity"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// SubscriptionDetailsResponse is returned by /subscription/details.
type SubscriptionDetailsResponse struct {
	Current *SubscriptionItemDTO  `json:"current"`
	History []SubscriptionItemDTO `json:"history"`
}

// SyncResponse is returned by /subscription/sync.
type SyncResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	SyncedCount int      `json:"syncedCount"`
	Errors      []string `json:"errors,omitempty"`
}

func NewSubscriptionStatusDTO(s *model.Subscription) *SubscriptionStatusDTO {
	if s == nil {
		return nil
	}
	return &SubscriptionStatusDTO{
		Plan:              s.Plan,
		Status:            string(s.Status),
		CurrentPeriodEnd:  s.StripeCurrentPeriodEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
}

func NewSubscriptionItemDTO(s model.Subscription) SubscriptionItemDTO {
	return SubscriptionItemDTO{
		ID:                s.ID,
		Plan:              s.Plan,
		Status:            string(s.Status),
		CurrentPeriodEnd:  s.StripeCurrentPeriodEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		Quantity:          s.Quantity,
		CreatedAt:         s.CreatedAt,
	}
}
