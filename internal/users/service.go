package users

import (
	"context"
	"errors"
	"strings"

	"leadertalk-backend/internal/leaders"
)

var ErrInvalidLeaders = errors.New("between 1 and 3 valid leader ids are required")

type Service struct {
	Repo    Repo
	Leaders leaders.Repo
}

func NewService(repo Repo, leaderRepo leaders.Repo) *Service {
	return &Service{Repo: repo, Leaders: leaderRepo}
}

// UpsertFromAuth persists the user identity from OAuth to stabilize history and usage ownership.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// CompleteOnboarding stores coaching goals and the selected leader personas.
// Each leader must exist in the reference data; 1 to 3 selections allowed.
func (s *Service) CompleteOnboarding(ctx context.Context, userID, goals string, leaderIDs []string) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return errors.New("user id is required")
	}

	cleaned := make([]string, 0, len(leaderIDs))
	seen := make(map[string]struct{}, len(leaderIDs))
	for _, id := range leaderIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) < 1 || len(cleaned) > 3 {
		return ErrInvalidLeaders
	}
	if s.Leaders != nil {
		for _, id := range cleaned {
			if _, err := s.Leaders.GetByID(ctx, id); err != nil {
				if errors.Is(err, leaders.ErrNotFound) {
					return ErrInvalidLeaders
				}
				return err
			}
		}
	}

	return s.Repo.SetOnboarding(ctx, userID, strings.TrimSpace(goals), cleaned)
}
