package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plandera/internal/model"
	"plandera/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

// Change reasons carried on subscription notifications.
const (
	ReasonCheckoutCompleted = "checkout_completed"
	ReasonUpdated           = "subscription_updated"
	ReasonDeleted           = "subscription_deleted"
	ReasonPaymentSucceeded  = "payment_succeeded"
	ReasonPaymentFailed     = "payment_failed"
	ReasonResync            = "resync"
)

// ChangeNotifier is told about every record a reconciliation touched.
type ChangeNotifier interface {
	SubscriptionChanged(ctx context.Context, reason string, sub *model.Subscription)
}

// Reconciler applies Stripe subscription state to local records keyed by the
// Stripe subscription id. Each method is safe to re-run for the same event.
type Reconciler interface {
	CheckoutCompleted(ctx context.Context, cs *stripe.CheckoutSession) error
	SubscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error
	SubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error
	InvoicePaid(ctx context.Context, inv *stripe.Invoice) error
	InvoicePaymentFailed(ctx context.Context, inv *stripe.Invoice) error
	// Upsert creates or overwrites the record for sub on behalf of userID,
	// storing planCode. It reports whether a new record was created.
	Upsert(ctx context.Context, userID string, sub *stripe.Subscription, planCode string) (bool, error)
}

type reconciler struct {
	subs     repository.SubscriptionRepository
	provider PaymentProvider
	notifier ChangeNotifier
	logger   zerolog.Logger
}

// NewReconciler builds a Reconciler. notifier may be nil.
func NewReconciler(subs repository.SubscriptionRepository, provider PaymentProvider, notifier ChangeNotifier, logger zerolog.Logger) Reconciler {
	return &reconciler{
		subs:     subs,
		provider: provider,
		notifier: notifier,
		logger:   logger.With().Str("service", "Reconciler").Logger(),
	}
}

func (r *reconciler) CheckoutCompleted(ctx context.Context, cs *stripe.CheckoutSession) error {
	userID := cs.Metadata["userId"]
	planCode := cs.Metadata["plan"]
	if userID == "" || planCode == "" {
		r.logger.Warn().Str("checkout_session_id", cs.ID).Msg("Missing metadata in checkout session, skipping")
		return nil
	}
	if cs.Subscription == nil || cs.Subscription.ID == "" {
		r.logger.Warn().Str("checkout_session_id", cs.ID).Msg("No subscription ID in checkout session, skipping")
		return nil
	}
	subID := cs.Subscription.ID

	// The session only references the subscription; price, period and
	// quantity come from Stripe's copy.
	sub, err := r.provider.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}
	snap, err := snapshotFromStripe(sub)
	if err != nil {
		return fmt.Errorf("checkout subscription %s: %w", subID, err)
	}

	rec := &model.Subscription{
		UserID:                 userID,
		StripeSubscriptionID:   subID,
		StripePriceID:          snap.StripePriceID,
		StripeCurrentPeriodEnd: snap.StripeCurrentPeriodEnd,
		Status:                 snap.Status,
		Plan:                   planCode,
		Quantity:               snap.Quantity,
		CancelAtPeriodEnd:      snap.CancelAtPeriodEnd,
	}
	created, err := r.subs.Create(ctx, rec)
	if err != nil {
		return err
	}
	if !created {
		r.logger.Info().Str("subscription_id", subID).Str("user_id", userID).Msg("Subscription already recorded, ignoring duplicate checkout completion")
		return nil
	}
	r.logger.Info().Str("subscription_id", subID).Str("user_id", userID).Str("plan", planCode).Msg("Subscription created")
	r.notify(ctx, ReasonCheckoutCompleted, rec)
	return nil
}

func (r *reconciler) SubscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	existing, err := r.subs.GetByStripeID(ctx, sub.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		// Stripe does not order deliveries; an update may beat checkout completion.
		r.logger.Warn().Str("subscription_id", sub.ID).Msg("Subscription not found, skipping update")
		return nil
	}
	snap, err := snapshotFromStripe(sub)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	if _, err := r.subs.Update(ctx, sub.ID, snap); err != nil {
		return err
	}
	r.logger.Info().Str("subscription_id", sub.ID).Str("status", string(snap.Status)).Msg("Subscription updated")
	r.notifyByStripeID(ctx, ReasonUpdated, sub.ID)
	return nil
}

func (r *reconciler) SubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	matched, err := r.subs.MarkCanceled(ctx, sub.ID)
	if err != nil {
		return err
	}
	if !matched {
		r.logger.Info().Str("subscription_id", sub.ID).Msg("Deleted subscription has no local record")
		return nil
	}
	r.logger.Info().Str("subscription_id", sub.ID).Msg("Subscription canceled")
	r.notifyByStripeID(ctx, ReasonDeleted, sub.ID)
	return nil
}

func (r *reconciler) InvoicePaid(ctx context.Context, inv *stripe.Invoice) error {
	subID := invoiceSubscriptionID(inv)
	if subID == "" {
		r.logger.Debug().Str("invoice_id", inv.ID).Msg("Invoice has no subscription, skipping")
		return nil
	}
	sub, err := r.provider.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}
	var periodEnd *time.Time
	if item := firstItem(sub); item != nil {
		periodEnd = unixTime(item.CurrentPeriodEnd)
	}
	matched, err := r.subs.UpdateStatusAndPeriodEnd(ctx, subID, model.SubscriptionStatus(sub.Status), periodEnd)
	if err != nil {
		return err
	}
	if !matched {
		r.logger.Info().Str("subscription_id", subID).Msg("Paid invoice for unknown subscription")
		return nil
	}
	r.logger.Info().Str("subscription_id", subID).Str("invoice_id", inv.ID).Msg("Invoice payment succeeded")
	r.notifyByStripeID(ctx, ReasonPaymentSucceeded, subID)
	return nil
}

func (r *reconciler) InvoicePaymentFailed(ctx context.Context, inv *stripe.Invoice) error {
	subID := invoiceSubscriptionID(inv)
	if subID == "" {
		r.logger.Debug().Str("invoice_id", inv.ID).Msg("Invoice has no subscription, skipping")
		return nil
	}
	matched, err := r.subs.UpdateStatus(ctx, subID, model.StatusPastDue)
	if err != nil {
		return err
	}
	if !matched {
		r.logger.Info().Str("subscription_id", subID).Msg("Failed invoice for unknown subscription")
		return nil
	}
	r.logger.Warn().Str("subscription_id", subID).Str("invoice_id", inv.ID).Msg("Invoice payment failed, subscription marked past_due")
	r.notifyByStripeID(ctx, ReasonPaymentFailed, subID)
	return nil
}

func (r *reconciler) Upsert(ctx context.Context, userID string, sub *stripe.Subscription, planCode string) (bool, error) {
	snap, err := snapshotFromStripe(sub)
	if err != nil {
		return false, fmt.Errorf("sync subscription %s: %w", sub.ID, err)
	}
	snap.Plan = &planCode

	existing, err := r.subs.GetByStripeID(ctx, sub.ID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		rec := &model.Subscription{
			UserID:                 userID,
			StripeSubscriptionID:   sub.ID,
			StripePriceID:          snap.StripePriceID,
			StripeCurrentPeriodEnd: snap.StripeCurrentPeriodEnd,
			Status:                 snap.Status,
			Plan:                   planCode,
			Quantity:               snap.Quantity,
			CancelAtPeriodEnd:      snap.CancelAtPeriodEnd,
		}
		created, err := r.subs.Create(ctx, rec)
		if err != nil {
			return false, err
		}
		if created {
			r.notify(ctx, ReasonResync, rec)
			return true, nil
		}
		// Lost the insert race to a concurrent webhook; fall through to update.
	}
	matched, err := r.subs.Update(ctx, sub.ID, snap)
	if err != nil {
		return false, err
	}
	if !matched {
		return false, fmt.Errorf("sync subscription %s: %w", sub.ID, errRecordVanished)
	}
	r.notifyByStripeID(ctx, ReasonResync, sub.ID)
	return false, nil
}

var errRecordVanished = errors.New("record disappeared during sync")

func (r *reconciler) notify(ctx context.Context, reason string, rec *model.Subscription) {
	if r.notifier == nil {
		return
	}
	r.notifier.SubscriptionChanged(ctx, reason, rec)
}

func (r *reconciler) notifyByStripeID(ctx context.Context, reason, stripeSubscriptionID string) {
	if r.notifier == nil {
		return
	}
	rec, err := r.subs.GetByStripeID(ctx, stripeSubscriptionID)
	if err != nil || rec == nil {
		r.logger.Warn().Err(err).Str("subscription_id", stripeSubscriptionID).Msg("Could not load subscription for change notification")
		return
	}
	r.notifier.SubscriptionChanged(ctx, reason, rec)
}
