package subscriptions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Subscription // userID -> subscription
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Subscription),
	}
}

// Upsert stores or replaces the subscription for a user.
func (r *MemoryRepo) Upsert(ctx context.Context, sub Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[sub.UserID]
	if ok {
		sub.CreatedAt = existing.CreatedAt
	} else if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.UpdatedAt = time.Now().UTC()
	r.data[sub.UserID] = sub
	return nil
}

// GetByUser returns the subscription for a user.
func (r *MemoryRepo) GetByUser(ctx context.Context, userID string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.data[userID]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

// GetByProviderID returns the subscription matching a provider reference.
func (r *MemoryRepo) GetByProviderID(ctx context.Context, provider, providerSubscriptionID string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.data {
		if sub.Provider == provider && sub.ProviderSubscriptionID == providerSubscriptionID {
			return sub, nil
		}
	}
	return Subscription{}, ErrNotFound
}

// UpdateStatus updates the subscription status for a user.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, userID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.data[userID]
	if !ok {
		return ErrNotFound
	}
	sub.Status = status
	sub.UpdatedAt = time.Now().UTC()
	r.data[userID] = sub
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
