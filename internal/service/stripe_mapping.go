package service

import (
	"errors"
	"time"

	"plandera/internal/model"

	"github.com/stripe/stripe-go/v82"
)

// ErrSubscriptionHasNoItems is returned for Stripe subscriptions without line items.
var ErrSubscriptionHasNoItems = errors.New("subscription has no items")

func firstItem(sub *stripe.Subscription) *stripe.SubscriptionItem {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0]
}

// snapshotFromStripe extracts the Stripe-owned fields of a subscription from
// its first item.
func snapshotFromStripe(sub *stripe.Subscription) (model.SubscriptionUpdate, error) {
	item := firstItem(sub)
	if item == nil || item.Price == nil {
		return model.SubscriptionUpdate{}, ErrSubscriptionHasNoItems
	}
	quantity := int(item.Quantity)
	if quantity < 1 {
		quantity = 1
	}
	return model.SubscriptionUpdate{
		StripePriceID:          item.Price.ID,
		StripeCurrentPeriodEnd: unixTime(item.CurrentPeriodEnd),
		Status:                 model.SubscriptionStatus(sub.Status),
		Quantity:               quantity,
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
	}, nil
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// invoiceSubscriptionID returns the subscription an invoice bills, or "" for
// one-off invoices.
func invoiceSubscriptionID(inv *stripe.Invoice) string {
	if inv == nil {
		return ""
	}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		if id := inv.Parent.SubscriptionDetails.Subscription.ID; id != "" {
			return id
		}
	}
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line.Subscription != nil && line.Subscription.ID != "" {
				return line.Subscription.ID
			}
		}
	}
	return ""
}

func priceOf(sub *stripe.Subscription) string {
	if item := firstItem(sub); item != nil && item.Price != nil {
		return item.Price.ID
	}
	return ""
}
