package repository

import (
	"context"
	"errors"
	"fmt"

	"plandera/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookEventRepository keeps a ledger of verified Stripe events.
type WebhookEventRepository interface {
	// RecordReceived inserts the event or bumps its attempt counter on redelivery.
	RecordReceived(ctx context.Context, eventID, eventType string) error
	// MarkResult stamps the outcome of the latest attempt. A nil procErr marks it processed.
	MarkResult(ctx context.Context, eventID string, procErr error) error
	Get(ctx context.Context, eventID string) (*model.WebhookEvent, error)
}

type webhookEventRepo struct {
	pool *pgxpool.Pool
}

func NewWebhookEventRepo(pool *pgxpool.Pool) WebhookEventRepository {
	return &webhookEventRepo{pool: pool}
}

func (r *webhookEventRepo) RecordReceived(ctx context.Context, eventID, eventType string) error {
	const q = `
		INSERT INTO stripe_webhook_events (event_id, event_type, attempts, received_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (event_id) DO UPDATE
		SET attempts = stripe_webhook_events.attempts + 1,
		    received_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, q, eventID, eventType); err != nil {
		return fmt.Errorf("record webhook event %s: %w", eventID, err)
	}
	return nil
}

func (r *webhookEventRepo) MarkResult(ctx context.Context, eventID string, procErr error) error {
	var (
		q    string
		args []any
	)
	if procErr == nil {
		q = `UPDATE stripe_webhook_events SET processed_at = NOW(), last_error = NULL WHERE event_id = $1`
		args = []any{eventID}
	} else {
		q = `UPDATE stripe_webhook_events SET last_error = $2 WHERE event_id = $1`
		args = []any{eventID, procErr.Error()}
	}
	if _, err := r.pool.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("mark webhook event %s: %w", eventID, err)
	}
	return nil
}

func (r *webhookEventRepo) Get(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	const q = `SELECT event_id, event_type, attempts, received_at, processed_at, last_error
	           FROM stripe_webhook_events WHERE event_id = $1`
	var e model.WebhookEvent
	err := r.pool.QueryRow(ctx, q, eventID).Scan(&e.EventID, &e.EventType, &e.Attempts, &e.ReceivedAt, &e.ProcessedAt, &e.LastError)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch webhook event %s: %w", eventID, err)
	}
	return &e, nil
}
