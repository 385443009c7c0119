package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plandera/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines methods for accessing subscription records.
// Every method is a single statement; the unique constraint on
// stripe_subscription_id is the only cross-request guard.
type SubscriptionRepository interface {
	// Create inserts sub unless a record with the same Stripe subscription id
	// already exists. It reports whether a row was inserted.
	Create(ctx context.Context, sub *model.Subscription) (bool, error)
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	// Update overwrites the Stripe-owned fields and reports whether a row matched.
	Update(ctx context.Context, stripeSubscriptionID string, upd model.SubscriptionUpdate) (bool, error)
	MarkCanceled(ctx context.Context, stripeSubscriptionID string) (bool, error)
	UpdateStatus(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus) (bool, error)
	UpdateStatusAndPeriodEnd(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus, periodEnd *time.Time) (bool, error)
	// ListByUser returns all of a user's records, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Subscription, error)
	// GetCurrentByUser returns the newest record in a current status, or nil.
	GetCurrentByUser(ctx context.Context, userID string) (*model.Subscription, error)
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, stripe_subscription_id, stripe_price_id, stripe_current_period_end,
       status, plan, quantity, cancel_at_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StripeSubscriptionID,
		&s.StripePriceID,
		&s.StripeCurrentPeriodEnd,
		&s.Status,
		&s.Plan,
		&s.Quantity,
		&s.CancelAtPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *model.Subscription) (bool, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO subscriptions (id, user_id, stripe_subscription_id, stripe_price_id, stripe_current_period_end,
		                           status, plan, quantity, cancel_at_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (stripe_subscription_id) DO NOTHING
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q,
		sub.ID,
		sub.UserID,
		sub.StripeSubscriptionID,
		sub.StripePriceID,
		sub.StripeCurrentPeriodEnd,
		sub.Status,
		sub.Plan,
		sub.Quantity,
		sub.CancelAtPeriodEnd,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create subscription %s for user %s: %w", sub.StripeSubscriptionID, sub.UserID, err)
	}
	return true, nil
}

func (r *subscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_subscription_id = $1`
	s, err := scanSubscription(r.pool.QueryRow(ctx, q, stripeSubscriptionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", stripeSubscriptionID, err)
	}
	return s, nil
}

func (r *subscriptionRepo) Update(ctx context.Context, stripeSubscriptionID string, upd model.SubscriptionUpdate) (bool, error) {
	const q = `
		UPDATE subscriptions
		SET stripe_price_id = $2,
		    stripe_current_period_end = $3,
		    status = $4,
		    quantity = $5,
		    cancel_at_period_end = $6,
		    plan = COALESCE($7, plan),
		    updated_at = NOW()
		WHERE stripe_subscription_id = $1
	`
	tag, err := r.pool.Exec(ctx, q,
		stripeSubscriptionID,
		upd.StripePriceID,
		upd.StripeCurrentPeriodEnd,
		upd.Status,
		upd.Quantity,
		upd.CancelAtPeriodEnd,
		upd.Plan,
	)
	if err != nil {
		return false, fmt.Errorf("update subscription %s: %w", stripeSubscriptionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *subscriptionRepo) MarkCanceled(ctx context.Context, stripeSubscriptionID string) (bool, error) {
	const q = `
		UPDATE subscriptions
		SET status = 'canceled',
		    cancel_at_period_end = FALSE,
		    updated_at = NOW()
		WHERE stripe_subscription_id = $1
	`
	tag, err := r.pool.Exec(ctx, q, stripeSubscriptionID)
	if err != nil {
		return false, fmt.Errorf("cancel subscription %s: %w", stripeSubscriptionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *subscriptionRepo) UpdateStatus(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus) (bool, error) {
	const q = `UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE stripe_subscription_id = $1`
	tag, err := r.pool.Exec(ctx, q, stripeSubscriptionID, status)
	if err != nil {
		return false, fmt.Errorf("set status %s on subscription %s: %w", status, stripeSubscriptionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *subscriptionRepo) UpdateStatusAndPeriodEnd(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus, periodEnd *time.Time) (bool, error) {
	const q = `
		UPDATE subscriptions
		SET status = $2,
		    stripe_current_period_end = $3,
		    updated_at = NOW()
		WHERE stripe_subscription_id = $1
	`
	tag, err := r.pool.Exec(ctx, q, stripeSubscriptionID, status, periodEnd)
	if err != nil {
		return false, fmt.Errorf("refresh subscription %s: %w", stripeSubscriptionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, userID string) ([]model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription for user %s: %w", userID, err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}

func (r *subscriptionRepo) GetCurrentByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		  AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1`
	statuses := make([]string, 0, len(model.CurrentStatuses))
	for _, st := range model.CurrentStatuses {
		statuses = append(statuses, string(st))
	}
	s, err := scanSubscription(r.pool.QueryRow(ctx, q, userID, statuses))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch current subscription for user %s: %w", userID, err)
	}
	return s, nil
}
