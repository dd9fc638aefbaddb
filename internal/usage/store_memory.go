package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadertalk-backend/internal/billing"
)

type memoryStore struct {
	mu      sync.RWMutex
	data    map[string]Usage
	anchors map[string]time.Time
	entries map[string][]Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		data:    make(map[string]Usage),
		anchors: make(map[string]time.Time),
		entries: make(map[string][]Entry),
	}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Usage, error) {
	return s.EnsurePeriod(ctx, userID)
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(userID, time.Now().UTC()), nil
}

// ensureLocked initializes absent users and rolls lapsed cycles forward.
func (s *memoryStore) ensureLocked(userID string, now time.Time) Usage {
	u, ok := s.data[userID]
	if !ok {
		u = defaultUsage(now)
		s.anchors[userID] = now
		s.data[userID] = u
		return u
	}
	if now.Before(u.ResetsAt) {
		return u
	}
	anchor := s.anchors[userID]
	cycle := billing.CycleAt(anchor, now)
	u.Used = 0
	u.CycleNumber = cycle.Number
	u.CycleStart = cycle.Start
	u.CycleEnd = cycle.End
	u.ResetsAt = cycle.End
	s.data[userID] = u
	return u
}

func (s *memoryStore) Consume(ctx context.Context, userID string, entry Entry) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	u := s.ensureLocked(userID, now)

	for _, existing := range s.entries[userID] {
		if existing.RecordingID == entry.RecordingID {
			return u, nil
		}
	}

	if entry.WordCount <= 0 {
		return u, nil
	}
	if u.Used+entry.WordCount > u.WordLimit {
		return Usage{}, ErrLimitReached
	}

	u.Used += entry.WordCount
	s.data[userID] = u

	entry.ID = uuid.NewString()
	entry.CycleNumber = u.CycleNumber
	entry.CycleStart = u.CycleStart
	entry.CycleEnd = u.CycleEnd
	entry.CreatedAt = now
	s.entries[userID] = append(s.entries[userID], entry)

	return u, nil
}

func (s *memoryStore) ListEntries(ctx context.Context, userID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries[userID]))
	copy(out, s.entries[userID])
	return out, nil
}

func (s *memoryStore) SetPlan(ctx context.Context, userID, plan string, wordLimit int) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensureLocked(userID, time.Now().UTC())
	u.Plan = plan
	u.WordLimit = wordLimit
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	u := s.ensureLocked(userID, now)
	cycle := billing.CycleAt(now, now)
	u.Used = 0
	u.CycleNumber = cycle.Number
	u.CycleStart = cycle.Start
	u.CycleEnd = cycle.End
	u.ResetsAt = cycle.End
	s.anchors[userID] = now
	s.data[userID] = u
	return u, nil
}
