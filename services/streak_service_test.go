package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linguaTutorAPI/internal/streak"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedStreak(t *testing.T, store *fakeStore, userID string, current, longest int, lastPractice time.Time) {
	t.Helper()
	created, err := store.InsertStreak(context.Background(), &streak.Streak{
		UserID:           userID,
		CurrentStreak:    current,
		LongestStreak:    longest,
		LastPracticeDate: &lastPractice,
		History:          []time.Time{truncateToDay(lastPractice)},
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestRecordPracticeFirstEvent(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "u1", 0)

	svc := NewStreakService(store)
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	result, err := svc.RecordPractice(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, &streak.UpdateResult{CurrentStreak: 1, LongestStreak: 1, Maintained: true}, result)

	st, err := store.GetStreak(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, []time.Time{time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}, st.History)

	u, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.CurrentStreak)
	assert.Equal(t, 1, u.LongestStreak)
}

func TestRecordPracticeSameDayIsIdempotent(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "u1", 0)

	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	seedStreak(t, store, "u1", 4, 9, now.Add(-6*time.Hour))

	svc := NewStreakService(store)
	svc.now = fixedClock(now)

	result, err := svc.RecordPractice(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &streak.UpdateResult{CurrentStreak: 4, LongestStreak: 9, Maintained: true}, result)

	st, err := store.GetStreak(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, st.History, 1)
}

func TestRecordPracticeConsecutiveDay(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "u1", 0)

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	seedStreak(t, store, "u1", 4, 9, now.AddDate(0, 0, -1))

	svc := NewStreakService(store)
	svc.now = fixedClock(now)

	result, err := svc.RecordPractice(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &streak.UpdateResult{CurrentStreak: 5, LongestStreak: 9, Maintained: true}, result)

	u, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, u.CurrentStreak)
	assert.Equal(t, 9, u.LongestStreak)
}

func TestRecordPracticeExtendsLongestStreak(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "u1", 0)

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	seedStreak(t, store, "u1", 9, 9, now.AddDate(0, 0, -1))

	svc := NewStreakService(store)
	svc.now = fixedClock(now)

	result, err := svc.RecordPractice(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, result.CurrentStreak)
	assert.Equal(t, 10, result.LongestStreak)
}

func TestRecordPracticeBrokenStreak(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "u1", 0)

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	seedStreak(t, store, "u1", 6, 9, now.AddDate(0, 0, -3))

	svc := NewStreakService(store)
	svc.now = fixedClock(now)

	result, err := svc.RecordPractice(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &streak.UpdateResult{CurrentStreak: 1, LongestStreak: 9, Maintained: false}, result)

	u, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.CurrentStreak)
	assert.Equal(t, 9, u.LongestStreak)
}

func TestRecordPracticeDayBoundaryOverMidnight(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "u1", 0)

	// 23:59 yesterday followed by 00:01 today counts as consecutive.
	now := time.Date(2025, 3, 10, 0, 1, 0, 0, time.UTC)
	seedStreak(t, store, "u1", 2, 2, time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC))

	svc := NewStreakService(store)
	svc.now = fixedClock(now)

	result, err := svc.RecordPractice(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.CurrentStreak)
	assert.True(t, result.Maintained)
}

func TestRecordPracticeLosesSwapToConcurrentWriter(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "u1", 0)

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	seedStreak(t, store, "u1", 4, 9, now.AddDate(0, 0, -1))
	store.failNextCAS = true

	svc := NewStreakService(store)
	svc.now = fixedClock(now)

	result, err := svc.RecordPractice(context.Background(), "u1")
	require.NoError(t, err)

	// The stored state is whatever the concurrent winner wrote; the loser
	// reports it without a second mutation.
	assert.Equal(t, &streak.UpdateResult{CurrentStreak: 4, LongestStreak: 9, Maintained: true}, result)

	st, err := store.GetStreak(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, st.History, 1)
}
