package subscriptions

import "time"

const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// Subscription is a user's current plan binding. One row per user; plan
// changes overwrite in place and take effect immediately.
type Subscription struct {
	UserID                 string    `json:"userId"`
	Plan                   string    `json:"plan"`
	Status                 string    `json:"status"`
	Provider               string    `json:"provider,omitempty"`
	ProviderSubscriptionID string    `json:"-"`
	CurrentPeriodStart     time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd       time.Time `json:"currentPeriodEnd"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}
