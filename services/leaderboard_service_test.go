package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linguaTutorAPI/internal/user"
)

func userReq(id string, country *string) *user.CreateUserRequest {
	return &user.CreateUserRequest{ID: id, DisplayName: id, Country: country}
}

func TestGetUserRankStrictlyGreater(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewLeaderboardService(store)

	seedUser(t, store, "a", 100)
	seedUser(t, store, "b", 100)
	seedUser(t, store, "c", 80)

	// Ties share a rank; the user below two tied leaders is third, not second.
	rankA, err := svc.GetUserRank(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, rankA)

	rankB, err := svc.GetUserRank(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, rankB)

	rankC, err := svc.GetUserRank(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 3, rankC)
}

func TestGetUserRankUnknownUser(t *testing.T) {
	store := newFakeStore()
	svc := NewLeaderboardService(store)

	seedUser(t, store, "a", 10)

	rank, err := svc.GetUserRank(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, 2, rank)
}

func TestGetLeaderboardOrderingAndRanks(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewLeaderboardService(store)

	seedUser(t, store, "bronze", 10)
	seedUser(t, store, "gold", 300)
	seedUser(t, store, "silver", 200)

	board, err := svc.GetLeaderboard(ctx, 10, nil)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3)

	assert.Equal(t, "gold", board.Entries[0].UserID)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, "silver", board.Entries[1].UserID)
	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.Equal(t, "bronze", board.Entries[2].UserID)
	assert.Equal(t, 3, board.Entries[2].Rank)
	assert.Equal(t, 3, board.TotalUsers)
}

func TestGetLeaderboardRespectsLimit(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewLeaderboardService(store)

	seedUser(t, store, "a", 30)
	seedUser(t, store, "b", 20)
	seedUser(t, store, "c", 10)

	board, err := svc.GetLeaderboard(ctx, 2, nil)
	require.NoError(t, err)
	assert.Len(t, board.Entries, 2)
}

func TestGetLeaderboardCountryFilterKeepsGlobalRanks(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewLeaderboardService(store)

	de := "DE"
	fr := "FR"

	_, err := store.CreateUser(ctx, userReq("first", &de))
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, userReq("second", &fr))
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, userReq("third", &de))
	require.NoError(t, err)

	_, err = store.IncrementPoints(ctx, "first", 300)
	require.NoError(t, err)
	_, err = store.IncrementPoints(ctx, "second", 200)
	require.NoError(t, err)
	_, err = store.IncrementPoints(ctx, "third", 100)
	require.NoError(t, err)

	board, err := svc.GetLeaderboard(ctx, 10, &de)
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)

	// Ranks were assigned before filtering, so the gap left by the FR user
	// stays visible.
	assert.Equal(t, "first", board.Entries[0].UserID)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, "third", board.Entries[1].UserID)
	assert.Equal(t, 3, board.Entries[1].Rank)
}
