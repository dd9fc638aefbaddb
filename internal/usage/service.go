package usage

import (
	"context"

	"leadertalk-backend/internal/billing"
)

type store interface {
	Get(ctx context.Context, userID string) (Usage, error)
	EnsurePeriod(ctx context.Context, userID string) (Usage, error)
	Consume(ctx context.Context, userID string, entry Entry) (Usage, error)
	ListEntries(ctx context.Context, userID string) ([]Entry, error)
	SetPlan(ctx context.Context, userID, plan string, wordLimit int) (Usage, error)
	Reset(ctx context.Context, userID string) (Usage, error)
}

// Service manages word-quota data via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Get returns the current usage for a user, initializing defaults if absent.
func (s *Service) Get(ctx context.Context, userID string) (Usage, error) {
	return s.store.Get(ctx, userID)
}

// EnsurePeriod rolls the usage window forward if the cycle has lapsed.
func (s *Service) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	return s.store.EnsurePeriod(ctx, userID)
}

// CanConsume reports whether the user can consume n more words this cycle.
func (s *Service) CanConsume(ctx context.Context, userID string, n int) (bool, Usage, error) {
	u, err := s.store.EnsurePeriod(ctx, userID)
	if err != nil {
		return false, Usage{}, err
	}
	if n <= 0 {
		return true, u, nil
	}
	if u.Used+n > u.WordLimit {
		return false, u, nil
	}
	return true, u, nil
}

// ConsumeWords charges wordCount words for a recording. The charge is
// idempotent per recording: a recording that already has a usage entry is
// not charged again.
func (s *Service) ConsumeWords(ctx context.Context, userID, recordingID string, wordCount int) (Usage, error) {
	return s.store.Consume(ctx, userID, Entry{
		UserID:      userID,
		RecordingID: recordingID,
		WordCount:   wordCount,
	})
}

// History returns per-cycle aggregation of the user's usage entries:
// totals, running totals, and per-day consolidation for charts.
func (s *Service) History(ctx context.Context, userID string) ([]billing.CycleSummary, error) {
	u, err := s.store.EnsurePeriod(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	return billing.Summarize(toBillingEntries(entries), u.WordLimit), nil
}

// Entries returns the raw usage log, newest-last.
func (s *Service) Entries(ctx context.Context, userID string) ([]Entry, error) {
	return s.store.ListEntries(ctx, userID)
}

// SetPlan switches the user's plan and word limit, effective immediately.
// The current cycle keeps its window; only the limit changes.
func (s *Service) SetPlan(ctx context.Context, userID, plan string, wordLimit int) (Usage, error) {
	return s.store.SetPlan(ctx, userID, plan, wordLimit)
}

// Reset sets usage to zero and restarts the cycle window at now.
func (s *Service) Reset(ctx context.Context, userID string) (Usage, error) {
	return s.store.Reset(ctx, userID)
}

func toBillingEntries(entries []Entry) []billing.Entry {
	out := make([]billing.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, billing.Entry{
			RecordingID: e.RecordingID,
			WordCount:   e.WordCount,
			CreatedAt:   e.CreatedAt,
			CycleNumber: e.CycleNumber,
			CycleStart:  e.CycleStart,
			CycleEnd:    e.CycleEnd,
		})
	}
	return out
}
