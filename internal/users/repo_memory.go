package users

import (
	"context"
	"sync"
	"time"
)

type memoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepo constructs an in-memory user repo for dev and tests.
func NewMemoryRepo() Repo {
	return &memoryRepo{users: make(map[string]User)}
}

func (r *memoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if ok {
		existing.Email = user.Email
		existing.FullName = user.FullName
		existing.PictureURL = user.PictureURL
		existing.UpdatedAt = now
		r.users[user.ID] = existing
		return nil
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.SubscriptionStartedAt == nil {
		started := now
		user.SubscriptionStartedAt = &started
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepo) SetOnboarding(ctx context.Context, userID, goals string, selectedLeaders []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Goals = goals
	user.SelectedLeaders = append([]string(nil), selectedLeaders...)
	user.OnboardingCompleted = true
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}
