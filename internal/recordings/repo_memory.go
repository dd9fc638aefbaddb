package recordings

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Recording // id -> recording
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Recording),
	}
}

// Create stores a new recording.
func (r *MemoryRepo) Create(ctx context.Context, rec Recording) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.ID] = rec
	return nil
}

// GetByID returns a recording by ID regardless of owner. Used by the pipeline.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Recording, error) {
	if err := ctx.Err(); err != nil {
		return Recording{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[id]
	if !ok || rec.DeletedAt != nil {
		return Recording{}, ErrNotFound
	}
	return rec, nil
}

// GetByUser returns a recording by ID scoped to its owner.
func (r *MemoryRepo) GetByUser(ctx context.Context, userID, id string) (Recording, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return Recording{}, err
	}
	if rec.UserID != userID {
		return Recording{}, ErrNotFound
	}
	return rec, nil
}

// ListByUser returns recordings for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	recs := make([]Recording, 0)
	for _, rec := range r.data {
		if rec.UserID == userID && rec.DeletedAt == nil {
			recs = append(recs, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	if offset >= len(recs) {
		return []Recording{}, nil
	}
	end := len(recs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return recs[offset:end], nil
}

// UpdateStatus sets the status and optional error code.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, id, status string, errorCode *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.ErrorCode = errorCode
	r.data[id] = rec
	return nil
}

// UpdateTranscript stores the transcript text and word count.
func (r *MemoryRepo) UpdateTranscript(ctx context.Context, id, transcript string, wordCount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	rec.Transcript = transcript
	rec.WordCount = wordCount
	r.data[id] = rec
	return nil
}

// UpdateAnalysis stores the completed analysis and marks the recording done.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, id string, analysis map[string]any, analysisVersion string, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	rec.Analysis = analysis
	rec.AnalysisVersion = analysisVersion
	rec.Status = StatusCompleted
	rec.CompletedAt = &completedAt
	rec.ErrorCode = nil
	r.data[id] = rec
	return nil
}

// SoftDelete hides the recording from reads. Consumed words are not refunded.
func (r *MemoryRepo) SoftDelete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[id]
	if !ok || rec.UserID != userID || rec.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	rec.DeletedAt = &now
	r.data[id] = rec
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
