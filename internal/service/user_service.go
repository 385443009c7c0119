package service

import (
	"context"
	"errors"
	"fmt"

	"plandera/internal/model"
	"plandera/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNoStripeCustomer = errors.New("no stripe customer found for this user")
)

type UserService interface {
	Get(ctx context.Context, id string) (*model.User, error)
	// LookupStripeCustomer returns the user's customer id, falling back to a
	// Stripe customer registered with the user's email. A found id is stored.
	// It returns ErrNoStripeCustomer when neither exists.
	LookupStripeCustomer(ctx context.Context, user *model.User) (string, error)
	// EnsureStripeCustomer behaves like LookupStripeCustomer but creates a
	// customer instead of failing.
	EnsureStripeCustomer(ctx context.Context, user *model.User) (string, error)
}

type userService struct {
	userRepo repository.UserRepository
	provider PaymentProvider
	logger   zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, provider PaymentProvider, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		provider: provider,
		logger:   logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) LookupStripeCustomer(ctx context.Context, user *model.User) (string, error) {
	if id := user.CustomerID(); id != "" {
		return id, nil
	}
	cust, err := s.provider.FindCustomerByEmail(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if cust == nil {
		return "", ErrNoStripeCustomer
	}
	if err := s.remember(ctx, user, cust.ID); err != nil {
		return "", err
	}
	s.logger.Info().Str("user_id", user.ID).Str("customer_id", cust.ID).Msg("Linked existing Stripe customer")
	return cust.ID, nil
}

func (s *userService) EnsureStripeCustomer(ctx context.Context, user *model.User) (string, error) {
	id, err := s.LookupStripeCustomer(ctx, user)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNoStripeCustomer) {
		return "", err
	}
	cust, err := s.provider.CreateCustomer(ctx, user)
	if err != nil {
		return "", err
	}
	if err := s.remember(ctx, user, cust.ID); err != nil {
		return "", err
	}
	s.logger.Info().Str("user_id", user.ID).Str("customer_id", cust.ID).Msg("Created Stripe customer")
	return cust.ID, nil
}

func (s *userService) remember(ctx context.Context, user *model.User, customerID string) error {
	if err := s.userRepo.UpdateStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return fmt.Errorf("link customer %s: %w", customerID, err)
	}
	user.StripeCustomerID = &customerID
	return nil
}
