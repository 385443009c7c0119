package service

import (
	"context"
	"fmt"

	"plandera/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// PaymentProvider is the subset of the Stripe API this service calls.
type PaymentProvider interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	// ListCustomerSubscriptions returns a single page of at most limit subscriptions.
	ListCustomerSubscriptions(ctx context.Context, customerID string, limit int64) ([]*stripe.Subscription, error)
	// FindCustomerByEmail returns the first customer registered with email, or nil.
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, user *model.User) (*stripe.Customer, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*stripe.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error)
}

// CheckoutSessionInput describes a hosted subscription checkout.
type CheckoutSessionInput struct {
	CustomerID string
	PriceID    string
	Quantity   int64
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type stripeProvider struct {
	sc     *client.API
	logger zerolog.Logger
}

// NewStripeProvider returns a PaymentProvider backed by its own Stripe client.
func NewStripeProvider(secretKey string, logger zerolog.Logger) PaymentProvider {
	return &stripeProvider{
		sc:     client.New(secretKey, nil),
		logger: logger.With().Str("service", "StripeProvider").Logger(),
	}
}

func (p *stripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := p.sc.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve stripe subscription %s: %w", subscriptionID, err)
	}
	return sub, nil
}

func (p *stripeProvider) ListCustomerSubscriptions(ctx context.Context, customerID string, limit int64) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var subs []*stripe.Subscription
	it := p.sc.Subscriptions.List(params)
	for it.Next() {
		subs = append(subs, it.Subscription())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list stripe subscriptions for customer %s: %w", customerID, err)
	}
	return subs, nil
}

func (p *stripeProvider) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	params.Single = true

	it := p.sc.Customers.List(params)
	if it.Next() {
		return it.Customer(), nil
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list stripe customers by email: %w", err)
	}
	return nil, nil
}

func (p *stripeProvider) CreateCustomer(ctx context.Context, user *model.User) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Metadata: map[string]string{"userId": user.ID},
	}
	if user.Name != "" {
		params.Name = stripe.String(user.Name)
	}
	params.Context = ctx
	cust, err := p.sc.Customers.New(params)
	if err != nil {
		p.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create Stripe customer")
		return nil, fmt.Errorf("create stripe customer: %w", err)
	}
	return cust, nil
}

func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:                 stripe.String(in.CustomerID),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(in.PriceID), Quantity: stripe.Int64(in.Quantity)}},
		SuccessURL:               stripe.String(in.SuccessURL),
		CancelURL:                stripe.String(in.CancelURL),
		AllowPromotionCodes:      stripe.Bool(true),
		BillingAddressCollection: stripe.String("required"),
		Metadata:                 in.Metadata,
		// Copy the metadata onto the subscription so bulk sync can fall back to it.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{Metadata: in.Metadata},
	}
	params.Context = ctx
	sess, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return sess, nil
}

func (p *stripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := p.sc.BillingPortalSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create billing portal session: %w", err)
	}
	return sess, nil
}
