package repository

import (
	"context"
	"errors"
	"fmt"

	"plandera/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository reads and invalidates sessions issued by the auth service.
type SessionRepository interface {
	// GetByToken returns the session and its user, or nil when the token is unknown.
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteByToken(ctx context.Context, token string) error
}

type sessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepo{pool: pool}
}

func (r *sessionRepo) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	const q = `
		SELECT s.id, s.token, s.user_id, s.expires_at,
		       u.id, u.name, u.email, u.stripe_customer_id, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1
	`
	var s model.Session
	err := r.pool.QueryRow(ctx, q, token).Scan(
		&s.ID, &s.Token, &s.UserID, &s.ExpiresAt,
		&s.User.ID, &s.User.Name, &s.User.Email, &s.User.StripeCustomerID, &s.User.CreatedAt, &s.User.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
