package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadertalk-backend/internal/billing"
	"leadertalk-backend/internal/plans"
	"leadertalk-backend/internal/shared/telemetry"
	"leadertalk-backend/internal/usage"
)

// ErrUnknownPlan indicates a plan name outside the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// Service contains business logic for subscriptions.
type Service struct {
	Repo  Repo
	Usage *usage.Service
}

// NewService constructs a Service.
func NewService(repo Repo, usageSvc *usage.Service) *Service {
	return &Service{Repo: repo, Usage: usageSvc}
}

// Current returns the user's subscription. Users who never selected a plan
// get the default plan on a cycle anchored at now.
func (s *Service) Current(ctx context.Context, userID string) (Subscription, error) {
	sub, err := s.Repo.GetByUser(ctx, userID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Subscription{}, err
	}

	now := time.Now().UTC()
	cycle := billing.CycleAt(now, now)
	def := plans.Default()
	return Subscription{
		UserID:             userID,
		Plan:               def.Name,
		Status:             StatusActive,
		CurrentPeriodStart: cycle.Start,
		CurrentPeriodEnd:   cycle.End,
	}, nil
}

// SelectPlan switches the user to a catalog plan, effective immediately.
// The word limit changes mid-cycle; already-consumed words carry over.
func (s *Service) SelectPlan(ctx context.Context, userID, planName string) (Subscription, error) {
	plan, ok := plans.ByName(planName)
	if !ok {
		return Subscription{}, ErrUnknownPlan
	}

	var u usage.Usage
	if s.Usage != nil {
		var err error
		u, err = s.Usage.SetPlan(ctx, userID, plan.Name, plan.MonthlyWordLimit)
		if err != nil {
			return Subscription{}, fmt.Errorf("set usage plan: %w", err)
		}
	}

	periodStart := u.CycleStart
	periodEnd := u.CycleEnd
	if periodStart.IsZero() {
		now := time.Now().UTC()
		cycle := billing.CycleAt(now, now)
		periodStart = cycle.Start
		periodEnd = cycle.End
	}

	sub := Subscription{
		UserID:             userID,
		Plan:               plan.Name,
		Status:             StatusActive,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
	}
	if err := s.Repo.Upsert(ctx, sub); err != nil {
		return Subscription{}, err
	}
	return s.Repo.GetByUser(ctx, userID)
}

// WebhookEvent is a normalized billing-provider notification.
type WebhookEvent struct {
	Type                   string    `json:"type"`
	Provider               string    `json:"provider"`
	ProviderSubscriptionID string    `json:"providerSubscriptionId"`
	Plan                   string    `json:"plan"`
	PeriodStart            time.Time `json:"periodStart"`
	PeriodEnd              time.Time `json:"periodEnd"`
}

const (
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.canceled"
	EventPaymentFailed        = "payment.failed"
)

// HandleWebhook applies a provider notification. Events for subscriptions we
// do not know are acknowledged and dropped so the provider stops retrying.
func (s *Service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	sub, err := s.Repo.GetByProviderID(ctx, event.Provider, event.ProviderSubscriptionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			telemetry.Info("billing.webhook_unmatched", map[string]any{
				"type":                     event.Type,
				"provider":                 event.Provider,
				"provider_subscription_id": event.ProviderSubscriptionID,
			})
			return nil
		}
		return err
	}

	switch event.Type {
	case EventSubscriptionUpdated:
		planName := strings.TrimSpace(event.Plan)
		if planName == "" {
			planName = sub.Plan
		}
		plan, ok := plans.ByName(planName)
		if !ok {
			return ErrUnknownPlan
		}
		sub.Plan = plan.Name
		sub.Status = StatusActive
		if !event.PeriodStart.IsZero() {
			sub.CurrentPeriodStart = event.PeriodStart
		}
		if !event.PeriodEnd.IsZero() {
			sub.CurrentPeriodEnd = event.PeriodEnd
		}
		if err := s.Repo.Upsert(ctx, sub); err != nil {
			return err
		}
		if s.Usage != nil {
			if _, err := s.Usage.SetPlan(ctx, sub.UserID, plan.Name, plan.MonthlyWordLimit); err != nil {
				return fmt.Errorf("set usage plan: %w", err)
			}
		}
		return nil

	case EventSubscriptionCanceled:
		if err := s.Repo.UpdateStatus(ctx, sub.UserID, StatusCanceled); err != nil {
			return err
		}
		// Canceled users fall back to the default plan's quota.
		if s.Usage != nil {
			def := plans.Default()
			if _, err := s.Usage.SetPlan(ctx, sub.UserID, def.Name, def.MonthlyWordLimit); err != nil {
				return fmt.Errorf("set usage plan: %w", err)
			}
		}
		return nil

	case EventPaymentFailed:
		return s.Repo.UpdateStatus(ctx, sub.UserID, StatusPastDue)

	default:
		telemetry.Info("billing.webhook_ignored", map[string]any{"type": event.Type})
		return nil
	}
}
