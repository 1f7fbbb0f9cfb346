package services

import (
	"context"
	"fmt"
	"time"

	"linguaTutorAPI/internal/streak"
)

// StreakService maintains daily-practice continuity. The read-compute-write
// cycle is guarded by a compare-and-swap on last_practice_date so two
// completions racing across a day boundary cannot leave the counters
// inconsistent; the loser of the swap re-reads and reports the winner's state.
type StreakService struct {
	store ProgressStore
	now   func() time.Time
}

func NewStreakService(store ProgressStore) *StreakService {
	return &StreakService{store: store, now: time.Now}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordPractice registers a practice event for the user and returns the
// resulting streak counters. Repeated events on the same calendar day are
// idempotent.
func (s *StreakService) RecordPractice(ctx context.Context, userID string) (*streak.UpdateResult, error) {
	now := s.now().UTC()
	today := truncateToDay(now)

	st, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load streak: %w", err)
	}

	if st == nil {
		return s.firstPractice(ctx, userID, now, today)
	}

	if st.LastPracticeDate != nil && truncateToDay(*st.LastPracticeDate).Equal(today) {
		// Already practiced today; nothing changes.
		return &streak.UpdateResult{
			CurrentStreak: st.CurrentStreak,
			LongestStreak: st.LongestStreak,
			Maintained:    true,
		}, nil
	}

	next := &streak.Streak{
		UserID:           userID,
		LongestStreak:    st.LongestStreak,
		LastPracticeDate: &now,
		History:          append(st.History, today),
	}

	maintained := false
	if st.LastPracticeDate != nil && truncateToDay(*st.LastPracticeDate).Equal(today.AddDate(0, 0, -1)) {
		// Practiced yesterday: the chain continues.
		next.CurrentStreak = st.CurrentStreak + 1
		if next.CurrentStreak > next.LongestStreak {
			next.LongestStreak = next.CurrentStreak
		}
		maintained = true
	} else {
		// Gap of more than one day, or no usable date: chain restarts.
		next.CurrentStreak = 1
	}

	swapped, err := s.store.CompareAndSwapStreak(ctx, userID, st.LastPracticeDate, next)
	if err != nil {
		return nil, fmt.Errorf("failed to store streak: %w", err)
	}

	if !swapped {
		// A concurrent completion won the day; its write already counted it.
		current, err := s.store.GetStreak(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload streak: %w", err)
		}
		if current == nil {
			return nil, fmt.Errorf("streak for user %s disappeared during update", userID)
		}
		return &streak.UpdateResult{
			CurrentStreak: current.CurrentStreak,
			LongestStreak: current.LongestStreak,
			Maintained:    true,
		}, nil
	}

	if err := s.store.UpdateUserStreak(ctx, userID, next.CurrentStreak, next.LongestStreak, now); err != nil {
		return nil, fmt.Errorf("failed to mirror streak onto user: %w", err)
	}

	return &streak.UpdateResult{
		CurrentStreak: next.CurrentStreak,
		LongestStreak: next.LongestStreak,
		Maintained:    maintained,
	}, nil
}

func (s *StreakService) firstPractice(ctx context.Context, userID string, now, today time.Time) (*streak.UpdateResult, error) {
	st := &streak.Streak{
		UserID:           userID,
		CurrentStreak:    1,
		LongestStreak:    1,
		LastPracticeDate: &now,
		History:          []time.Time{today},
	}

	created, err := s.store.InsertStreak(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to create streak: %w", err)
	}

	if !created {
		// Lost the creation race; the other writer owns today.
		current, err := s.store.GetStreak(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload streak: %w", err)
		}
		if current != nil {
			return &streak.UpdateResult{
				CurrentStreak: current.CurrentStreak,
				LongestStreak: current.LongestStreak,
				Maintained:    true,
			}, nil
		}
	}

	if err := s.store.UpdateUserStreak(ctx, userID, 1, 1, now); err != nil {
		return nil, fmt.Errorf("failed to mirror streak onto user: %w", err)
	}

	return &streak.UpdateResult{CurrentStreak: 1, LongestStreak: 1, Maintained: true}, nil
}
