package repository

import (
	"context"
	"errors"
	"fmt"

	"plandera/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error
	// ListUsersWithStripeCustomer returns every user that has a stored customer id.
	ListUsersWithStripeCustomer(ctx context.Context) ([]model.User, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	query := `SELECT id, name, email, stripe_customer_id, created_at, updated_at FROM users WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.StripeCustomerID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return &u, nil
}

func (r *userRepo) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	query := `UPDATE users SET stripe_customer_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, userID, customerID); err != nil {
		return fmt.Errorf("store stripe customer id for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) ListUsersWithStripeCustomer(ctx context.Context) ([]model.User, error) {
	query := `SELECT id, name, email, stripe_customer_id, created_at, updated_at
	          FROM users WHERE stripe_customer_id IS NOT NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users with stripe customer: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.StripeCustomerID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
