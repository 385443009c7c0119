package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"plandera/internal/plan"

	"github.com/rs/zerolog"
)

var ErrInvalidPlan = errors.New("invalid plan")

// BillingConfig holds the redirect targets of hosted Stripe pages.
type BillingConfig struct {
	AppBaseURL          string
	AllowedOrigins      []string
	CheckoutSuccessPath string
	CheckoutCancelPath  string
	PortalReturnPath    string
}

// BillingService opens Stripe checkout and billing portal sessions.
type BillingService struct {
	users    UserService
	provider PaymentProvider
	catalog  *plan.Catalog
	cfg      BillingConfig
	logger   zerolog.Logger
}

func NewBillingService(users UserService, provider PaymentProvider, catalog *plan.Catalog, cfg BillingConfig, logger zerolog.Logger) *BillingService {
	return &BillingService{
		users:    users,
		provider: provider,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger.With().Str("service", "BillingService").Logger(),
	}
}

// CreateCheckout returns the hosted checkout URL for planCode. A quantity of
// zero means one seat.
func (s *BillingService) CreateCheckout(ctx context.Context, userID, planCode string, quantity int, origin string) (string, error) {
	p, ok := s.catalog.Get(planCode)
	if !ok || p.PriceID == "" {
		return "", ErrInvalidPlan
	}
	if quantity <= 0 {
		quantity = 1
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	customerID, err := s.users.EnsureStripeCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	base := s.Origin(origin)
	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutSessionInput{
		CustomerID: customerID,
		PriceID:    p.PriceID,
		Quantity:   int64(quantity),
		SuccessURL: base + s.cfg.CheckoutSuccessPath,
		CancelURL:  base + s.cfg.CheckoutCancelPath,
		Metadata: map[string]string{
			"userId":   userID,
			"plan":     p.Code,
			"quantity": strconv.Itoa(quantity),
		},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("plan", p.Code).Msg("Failed to create checkout session")
		return "", err
	}
	s.logger.Info().Str("user_id", userID).Str("plan", p.Code).Int("quantity", quantity).Str("checkout_session_id", sess.ID).Msg("Checkout session created")
	return sess.URL, nil
}

// CreatePortal returns a billing portal URL for the user's Stripe customer.
func (s *BillingService) CreatePortal(ctx context.Context, userID, origin string) (string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	customerID := user.CustomerID()
	if customerID == "" {
		return "", ErrNoStripeCustomer
	}
	sess, err := s.provider.CreatePortalSession(ctx, customerID, s.Origin(origin)+s.cfg.PortalReturnPath)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create billing portal session")
		return "", err
	}
	return sess.URL, nil
}

// Origin returns origin when it is an allowed origin and the app base URL
// otherwise. The result has no trailing slash.
func (s *BillingService) Origin(origin string) string {
	origin = strings.TrimRight(origin, "/")
	if origin != "" {
		for _, allowed := range s.cfg.AllowedOrigins {
			if strings.TrimRight(allowed, "/") == origin {
				return origin
			}
		}
	}
	return strings.TrimRight(s.cfg.AppBaseURL, "/")
}
