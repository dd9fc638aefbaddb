package leaders

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("leader not found")

// Repo defines read access to leader reference data.
type Repo interface {
	List(ctx context.Context) ([]Leader, error)
	ListFeatured(ctx context.Context) ([]Leader, error)
	GetByID(ctx context.Context, leaderID string) (Leader, error)
}
