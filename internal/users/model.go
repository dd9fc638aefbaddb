package users

import "time"

// User is an authenticated account plus its coaching onboarding state.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	FullName              string     `json:"fullName"`
	PictureURL            string     `json:"pictureUrl"`
	Goals                 string     `json:"goals"`
	SelectedLeaders       []string   `json:"selectedLeaders"`
	OnboardingCompleted   bool       `json:"onboardingCompleted"`
	SubscriptionStartedAt *time.Time `json:"subscriptionStartedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}
