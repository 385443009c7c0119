package service

import (
	"context"
	"fmt"

	"plandera/internal/plan"
	"plandera/internal/repository"

	"github.com/rs/zerolog"
)

// syncPageSize caps the subscriptions fetched per customer. Customers with
// more are only partially synced.
const syncPageSize = 100

// SyncResult summarizes a bulk sync. Errors holds one entry per subscription
// that could not be written.
type SyncResult struct {
	SyncedCount int
	Errors      []string
}

// SyncService pulls a customer's subscriptions from Stripe and reconciles them
// with local records. Subscriptions are processed one at a time.
type SyncService struct {
	users      UserService
	userRepo   repository.UserRepository
	provider   PaymentProvider
	reconciler Reconciler
	catalog    *plan.Catalog
	logger     zerolog.Logger
}

func NewSyncService(users UserService, userRepo repository.UserRepository, provider PaymentProvider, reconciler Reconciler, catalog *plan.Catalog, logger zerolog.Logger) *SyncService {
	return &SyncService{
		users:      users,
		userRepo:   userRepo,
		provider:   provider,
		reconciler: reconciler,
		catalog:    catalog,
		logger:     logger.With().Str("service", "SyncService").Logger(),
	}
}

// SyncUser reconciles every Stripe subscription of the user's customer.
func (s *SyncService) SyncUser(ctx context.Context, userID string) (*SyncResult, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	customerID, err := s.users.LookupStripeCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	subs, err := s.provider.ListCustomerSubscriptions(ctx, customerID, syncPageSize)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{}
	for _, sub := range subs {
		planCode := s.catalog.Resolve(priceOf(sub), sub.Metadata["plan"])
		if _, err := s.reconciler.Upsert(ctx, userID, sub, planCode); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Str("subscription_id", sub.ID).Msg("Failed to sync subscription")
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to sync %s", sub.ID))
			continue
		}
		res.SyncedCount++
	}
	s.logger.Info().Str("user_id", userID).Int("synced", res.SyncedCount).Int("failed", len(res.Errors)).Msg("Subscription sync finished")
	return res, nil
}

// SyncAll runs SyncUser for every user with a stored customer id. Per-user
// failures are collected in the result rather than aborting the run.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncResult, error) {
	users, err := s.userRepo.ListUsersWithStripeCustomer(ctx)
	if err != nil {
		return nil, err
	}
	total := &SyncResult{}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := s.SyncUser(ctx, u.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", u.ID).Msg("Failed to sync user")
			total.Errors = append(total.Errors, fmt.Sprintf("Failed to sync user %s", u.ID))
			continue
		}
		total.SyncedCount += res.SyncedCount
		total.Errors = append(total.Errors, res.Errors...)
	}
	return total, nil
}
