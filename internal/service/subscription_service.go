package service

import (
	"context"

	"plandera/internal/model"
	"plandera/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionDetails is a user's current subscription and their ended ones.
type SubscriptionDetails struct {
	Current *model.Subscription
	History []model.Subscription
}

// SubscriptionService defines the read side of subscription records.
type SubscriptionService interface {
	// Current returns the newest record in a current status, or nil.
	Current(ctx context.Context, userID string) (*model.Subscription, error)
	Details(ctx context.Context, userID string) (*SubscriptionDetails, error)
}

type subscriptionService struct {
	repo   repository.SubscriptionRepository
	logger zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(repo repository.SubscriptionRepository, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		repo:   repo,
		logger: logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) Current(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.repo.GetCurrentByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch current subscription")
		return nil, err
	}
	return sub, nil
}

// Details splits the user's records into the current one and the terminal
// ones. Records in other statuses, such as incomplete, appear in neither.
func (s *subscriptionService) Details(ctx context.Context, userID string) (*SubscriptionDetails, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list subscriptions")
		return nil, err
	}

	d := &SubscriptionDetails{History: []model.Subscription{}}
	// all is newest first, so the first current record wins.
	for i := range all {
		if all[i].Status.IsCurrent() {
			d.Current = &all[i]
			break
		}
	}
	for _, sub := range all {
		if d.Current != nil && sub.ID == d.Current.ID {
			continue
		}
		if sub.Status.IsHistory() {
			d.History = append(d.History, sub)
		}
	}
	return d, nil
}
