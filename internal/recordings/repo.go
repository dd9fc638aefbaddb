package recordings

import (
	"context"
	"time"
)

// Repo persists recordings.
type Repo interface {
	Create(ctx context.Context, rec Recording) error
	GetByID(ctx context.Context, id string) (Recording, error)
	GetByUser(ctx context.Context, userID, id string) (Recording, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Recording, error)
	UpdateStatus(ctx context.Context, id, status string, errorCode *string) error
	UpdateTranscript(ctx context.Context, id, transcript string, wordCount int) error
	UpdateAnalysis(ctx context.Context, id string, analysis map[string]any, analysisVersion string, completedAt time.Time) error
	SoftDelete(ctx context.Context, userID, id string) error
}
