package subscriptions

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("subscription not found")

// Repo persists subscriptions.
type Repo interface {
	Upsert(ctx context.Context, sub Subscription) error
	GetByUser(ctx context.Context, userID string) (Subscription, error)
	GetByProviderID(ctx context.Context, provider, providerSubscriptionID string) (Subscription, error)
	UpdateStatus(ctx context.Context, userID, status string) error
}
