package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadertalk-backend/internal/plans"
	"leadertalk-backend/internal/usage"
)

func TestCurrentDefaultsWithoutSelection(t *testing.T) {
	svc := NewService(NewMemoryRepo(), usage.NewService())

	sub, err := svc.Current(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, plans.Default().Name, sub.Plan)
	assert.Equal(t, StatusActive, sub.Status)
	assert.True(t, sub.CurrentPeriodEnd.After(sub.CurrentPeriodStart))
}

func TestSelectPlanUpdatesUsageLimit(t *testing.T) {
	usageSvc := usage.NewService()
	svc := NewService(NewMemoryRepo(), usageSvc)
	ctx := context.Background()

	sub, err := svc.SelectPlan(ctx, "user-1", "Pro")
	require.NoError(t, err)
	assert.Equal(t, "Pro", sub.Plan)
	assert.Equal(t, StatusActive, sub.Status)

	u, err := usageSvc.Get(ctx, "user-1")
	require.NoError(t, err)
	pro, _ := plans.ByName("Pro")
	assert.Equal(t, pro.MonthlyWordLimit, u.WordLimit)
}

func TestSelectPlanUnknown(t *testing.T) {
	svc := NewService(NewMemoryRepo(), usage.NewService())

	_, err := svc.SelectPlan(context.Background(), "user-1", "Platinum")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestWebhookUnknownSubscriptionAcknowledged(t *testing.T) {
	svc := NewService(NewMemoryRepo(), usage.NewService())

	err := svc.HandleWebhook(context.Background(), WebhookEvent{
		Type:                   EventSubscriptionCanceled,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_missing",
	})
	assert.NoError(t, err)
}

func TestWebhookCancelFallsBackToDefaultPlan(t *testing.T) {
	repo := NewMemoryRepo()
	usageSvc := usage.NewService()
	svc := NewService(repo, usageSvc)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, Subscription{
		UserID:                 "user-1",
		Plan:                   "Executive",
		Status:                 StatusActive,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_123",
		CurrentPeriodStart:     now,
		CurrentPeriodEnd:       now.Add(30 * 24 * time.Hour),
	}))
	exec, _ := plans.ByName("Executive")
	_, err := usageSvc.SetPlan(ctx, "user-1", exec.Name, exec.MonthlyWordLimit)
	require.NoError(t, err)

	err = svc.HandleWebhook(ctx, WebhookEvent{
		Type:                   EventSubscriptionCanceled,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_123",
	})
	require.NoError(t, err)

	sub, err := repo.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, sub.Status)

	u, err := usageSvc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, plans.Default().MonthlyWordLimit, u.WordLimit)
}

func TestWebhookPaymentFailedMarksPastDue(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, usage.NewService())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, Subscription{
		UserID:                 "user-1",
		Plan:                   "Pro",
		Status:                 StatusActive,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_123",
		CurrentPeriodStart:     now,
		CurrentPeriodEnd:       now.Add(30 * 24 * time.Hour),
	}))

	err := svc.HandleWebhook(ctx, WebhookEvent{
		Type:                   EventPaymentFailed,
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_123",
	})
	require.NoError(t, err)

	sub, err := repo.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPastDue, sub.Status)
}
