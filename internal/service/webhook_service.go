package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"plandera/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrMissingSignature = errors.New("missing stripe-signature header")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrHandlerFailed    = errors.New("webhook handler failed")
)

// Archiver stores verified raw webhook payloads.
type Archiver interface {
	Archive(ctx context.Context, eventID, eventType string, payload []byte) error
}

// WebhookService verifies Stripe events and routes them to the Reconciler.
type WebhookService struct {
	secret     string
	reconciler Reconciler
	events     repository.WebhookEventRepository
	archiver   Archiver
	logger     zerolog.Logger
}

// NewWebhookService creates the event receiver. events and archiver may be nil.
func NewWebhookService(secret string, reconciler Reconciler, events repository.WebhookEventRepository, archiver Archiver, logger zerolog.Logger) *WebhookService {
	return &WebhookService{
		secret:     secret,
		reconciler: reconciler,
		events:     events,
		archiver:   archiver,
		logger:     logger.With().Str("service", "WebhookService").Logger(),
	}
}

// HandleEvent verifies payload against signature and dispatches the event.
// Verification failures wrap ErrMissingSignature or ErrInvalidSignature and
// have no side effects; dispatch failures wrap ErrHandlerFailed.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Webhook signature verification failed")
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	log := s.logger.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()
	log.Info().Msg("Stripe webhook received")

	s.recordReceived(ctx, log, event)

	dispatchErr := s.dispatch(ctx, log, event)
	s.recordResult(ctx, log, event.ID, dispatchErr)
	if dispatchErr != nil {
		log.Error().Err(dispatchErr).Msg("Webhook handler error")
		return fmt.Errorf("%w: %v", ErrHandlerFailed, dispatchErr)
	}
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, log zerolog.Logger, event stripe.Event) error {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.reconciler.CheckoutCompleted(ctx, &cs)

	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.reconciler.SubscriptionUpdated(ctx, &sub)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.reconciler.SubscriptionDeleted(ctx, &sub)

	case stripe.EventTypeInvoicePaymentSucceeded:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		return s.reconciler.InvoicePaid(ctx, &inv)

	case stripe.EventTypeInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		return s.reconciler.InvoicePaymentFailed(ctx, &inv)

	default:
		// Acknowledged so that Stripe does not retry events we do not consume.
		log.Info().Msg("Unhandled Stripe webhook event")
		return nil
	}
}

func (s *WebhookService) recordReceived(ctx context.Context, log zerolog.Logger, event stripe.Event) {
	if s.events != nil {
		if err := s.events.RecordReceived(ctx, event.ID, string(event.Type)); err != nil {
			log.Warn().Err(err).Msg("Failed to record webhook event")
		}
	}
	if s.archiver != nil {
		raw, err := json.Marshal(event)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to encode webhook event for archive")
			return
		}
		if err := s.archiver.Archive(ctx, event.ID, string(event.Type), raw); err != nil {
			log.Warn().Err(err).Msg("Failed to archive webhook event")
		}
	}
}

func (s *WebhookService) recordResult(ctx context.Context, log zerolog.Logger, eventID string, dispatchErr error) {
	if s.events == nil {
		return
	}
	if err := s.events.MarkResult(ctx, eventID, dispatchErr); err != nil {
		log.Warn().Err(err).Msg("Failed to mark webhook event result")
	}
}
