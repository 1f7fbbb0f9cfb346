package services

import (
	"context"
	"fmt"

	"linguaTutorAPI/internal/leaderboard"
)

// LeaderboardService derives ranking views from the store's point totals.
type LeaderboardService struct {
	store ProgressStore
}

func NewLeaderboardService(store ProgressStore) *LeaderboardService {
	return &LeaderboardService{store: store}
}

// GetUserRank is 1 + the number of users with strictly more points. Tied
// users share a rank and the ranks after a tie are skipped.
func (s *LeaderboardService) GetUserRank(ctx context.Context, userID string) (int, error) {
	points := 0
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load user for rank: %w", err)
	}
	if u != nil {
		points = u.TotalPoints
	}

	count, err := s.store.CountUsersWithPointsGreaterThan(ctx, points)
	if err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}

	return count + 1, nil
}

// GetLeaderboard returns the top users by points with sequential ranks. The
// country filter is applied after ranks are assigned, so filtered entries
// keep their global rank numbers. Long-standing behavior clients rely on; do
// not reorder the filter.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit int, country *string) (*leaderboard.Leaderboard, error) {
	if limit <= 0 {
		limit = 100
	}

	users, err := s.store.TopUsersByPoints(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	entries := make([]*leaderboard.Entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, &leaderboard.Entry{
			UserID:        u.ID,
			DisplayName:   u.DisplayName,
			TotalPoints:   u.TotalPoints,
			CurrentStreak: u.CurrentStreak,
			Rank:          i + 1,
			Country:       u.Country,
		})
	}

	if country != nil && *country != "" {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.Country != nil && *entry.Country == *country {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	return &leaderboard.Leaderboard{
		Entries:    entries,
		TotalUsers: len(entries),
	}, nil
}
