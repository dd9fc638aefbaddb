package subscriptions

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert stores or replaces the subscription for a user.
func (r *PGRepo) Upsert(ctx context.Context, sub Subscription) error {
	const query = `
INSERT INTO subscriptions (
    user_id,
    plan,
    status,
    provider,
    provider_subscription_id,
    current_period_start,
    current_period_end
) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE SET
    plan = EXCLUDED.plan,
    status = EXCLUDED.status,
    provider = EXCLUDED.provider,
    provider_subscription_id = EXCLUDED.provider_subscription_id,
    current_period_start = EXCLUDED.current_period_start,
    current_period_end = EXCLUDED.current_period_end,
    updated_at = now()`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		sub.UserID,
		sub.Plan,
		sub.Status,
		sub.Provider,
		sub.ProviderSubscriptionID,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
	)
	return err
}

// GetByUser returns the subscription for a user.
func (r *PGRepo) GetByUser(ctx context.Context, userID string) (Subscription, error) {
	const query = `
SELECT user_id, plan, status, provider, provider_subscription_id, current_period_start, current_period_end, created_at, updated_at
FROM subscriptions
WHERE user_id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID))
}

// GetByProviderID returns the subscription matching a provider reference.
func (r *PGRepo) GetByProviderID(ctx context.Context, provider, providerSubscriptionID string) (Subscription, error) {
	const query = `
SELECT user_id, plan, status, provider, provider_subscription_id, current_period_start, current_period_end, created_at, updated_at
FROM subscriptions
WHERE provider = $1 AND provider_subscription_id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, provider, providerSubscriptionID))
}

// UpdateStatus updates the subscription status for a user.
func (r *PGRepo) UpdateStatus(ctx context.Context, userID, status string) error {
	const query = `
UPDATE subscriptions
SET status = $1, updated_at = now()
WHERE user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, status, userID)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.UserID,
		&sub.Plan,
		&sub.Status,
		&sub.Provider,
		&sub.ProviderSubscriptionID,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subscription{}, ErrNotFound
		}
		return Subscription{}, err
	}
	return sub, nil
}

var _ Repo = (*PGRepo)(nil)
