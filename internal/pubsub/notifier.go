package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"plandera/internal/model"

	"github.com/rs/zerolog"
)

// SubscriptionChanged is the message the calendar application consumes after
// a local subscription record changed.
type SubscriptionChanged struct {
	Reason               string     `json:"reason"`
	UserID               string     `json:"userId"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	Quantity             int        `json:"quantity"`
	CancelAtPeriodEnd    bool       `json:"cancelAtPeriodEnd"`
	CurrentPeriodEnd     *time.Time `json:"currentPeriodEnd,omitempty"`
	OccurredAt           time.Time  `json:"occurredAt"`
}

// Notifier publishes subscription changes. Delivery is best effort: failures
// are logged and never surface to the caller.
type Notifier struct {
	publisher Publisher
	topic     string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewNotifier returns a Notifier publishing to topic.
func NewNotifier(publisher Publisher, topic string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "SubscriptionNotifier").Logger(),
		now:       time.Now,
	}
}

// SubscriptionChanged publishes the current state of sub.
func (n *Notifier) SubscriptionChanged(ctx context.Context, reason string, sub *model.Subscription) {
	msg := SubscriptionChanged{
		Reason:               reason,
		UserID:               sub.UserID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		Plan:                 sub.Plan,
		Status:               string(sub.Status),
		Quantity:             sub.Quantity,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:     sub.StripeCurrentPeriodEnd,
		OccurredAt:           n.now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error().Err(err).Str("subscription_id", sub.StripeSubscriptionID).Msg("Failed to encode subscription change")
		return
	}
	attrs := map[string]string{"reason": reason, "userId": sub.UserID}
	id, err := n.publisher.Publish(ctx, n.topic, payload, attrs)
	if err != nil {
		n.logger.Error().Err(err).Str("subscription_id", sub.StripeSubscriptionID).Msg("Failed to publish subscription change")
		return
	}
	n.logger.Debug().Str("message_id", id).Str("subscription_id", sub.StripeSubscriptionID).Str("reason", reason).Msg("Published subscription change")
}
