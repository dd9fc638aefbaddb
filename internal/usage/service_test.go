package usage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadertalk-backend/internal/plans"
)

func TestServiceDefaultsNewUser(t *testing.T) {
	svc := NewService()

	u, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)

	def := plans.Default()
	assert.Equal(t, def.Name, u.Plan)
	assert.Equal(t, def.MonthlyWordLimit, u.WordLimit)
	assert.Equal(t, 0, u.Used)
	assert.Equal(t, 1, u.CycleNumber)
	assert.Equal(t, def.MonthlyWordLimit, u.Remaining())
}

func TestConsumeWordsCharges(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	u, err := svc.ConsumeWords(ctx, "user-1", "rec-1", 120)
	require.NoError(t, err)
	assert.Equal(t, 120, u.Used)

	u, err = svc.ConsumeWords(ctx, "user-1", "rec-2", 30)
	require.NoError(t, err)
	assert.Equal(t, 150, u.Used)
}

func TestConsumeWordsIdempotentPerRecording(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	_, err := svc.ConsumeWords(ctx, "user-1", "rec-1", 100)
	require.NoError(t, err)

	// Retrying the same recording must not double-charge.
	u, err := svc.ConsumeWords(ctx, "user-1", "rec-1", 100)
	require.NoError(t, err)
	assert.Equal(t, 100, u.Used)

	entries, err := svc.Entries(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConsumeWordsLimitReached(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	limit := plans.Default().MonthlyWordLimit

	_, err := svc.ConsumeWords(ctx, "user-1", "rec-1", limit)
	require.NoError(t, err)

	_, err = svc.ConsumeWords(ctx, "user-1", "rec-2", 1)
	assert.ErrorIs(t, err, ErrLimitReached)

	ok, u, err := svc.CanConsume(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, u.Remaining())
}

func TestSetPlanKeepsUsed(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	_, err := svc.ConsumeWords(ctx, "user-1", "rec-1", 400)
	require.NoError(t, err)

	pro, ok := plans.ByName("Pro")
	require.True(t, ok)

	u, err := svc.SetPlan(ctx, "user-1", pro.Name, pro.MonthlyWordLimit)
	require.NoError(t, err)
	assert.Equal(t, pro.Name, u.Plan)
	assert.Equal(t, pro.MonthlyWordLimit, u.WordLimit)
	assert.Equal(t, 400, u.Used)
}

func TestHistoryAggregatesEntries(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	_, err := svc.ConsumeWords(ctx, "user-1", "rec-1", 100)
	require.NoError(t, err)
	_, err = svc.ConsumeWords(ctx, "user-1", "rec-2", 50)
	require.NoError(t, err)

	cycles, err := svc.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, 1, cycles[0].Cycle.Number)
	assert.Equal(t, 150, cycles[0].TotalWords)
	assert.Equal(t, 2, cycles[0].EntryCount)
	require.Len(t, cycles[0].Running, 2)
	assert.Equal(t, 150, cycles[0].Running[1].RunningTotal)
}

func TestHistoryEmpty(t *testing.T) {
	svc := NewService()

	cycles, err := svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestResetClearsUsage(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	_, err := svc.ConsumeWords(ctx, "user-1", "rec-1", 500)
	require.NoError(t, err)

	u, err := svc.Reset(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Used)
	assert.Equal(t, 1, u.CycleNumber)
}
