package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"linguaTutorAPI/internal/achievement"
	"linguaTutorAPI/internal/conversation"
	"linguaTutorAPI/internal/progress"
	"linguaTutorAPI/internal/streak"
	"linguaTutorAPI/internal/user"
)

// ErrStoreUnavailable wraps persistence failures. Callers decide whether to
// retry; nothing in this package retries on its own.
var ErrStoreUnavailable = errors.New("progress store unavailable")

// AwardOutcome reports whether awarding actually created the row. When the
// achievement already existed, ExistingID points at the earlier grant.
type AwardOutcome struct {
	Created    bool
	ExistingID uuid.UUID
}

// ProgressStore is the persistence boundary for the progress/gamification
// core. Counter mutations (IncrementPoints, IncrementConversationCount) must
// be atomic at the store, and AwardAchievementIfAbsent must enforce the
// (user, type) uniqueness so concurrent triggers cannot double-award.
type ProgressStore interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
	CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error)
	IncrementPoints(ctx context.Context, userID string, delta int) (bool, error)
	UpdateUserStreak(ctx context.Context, userID string, current, longest int, lastPractice time.Time) error

	GetOrCreateProgress(ctx context.Context, userID string) (*progress.Progress, error)
	IncrementConversationCount(ctx context.Context, userID string) (bool, error)
	RecordSessionScore(ctx context.Context, userID string, score float64) error
	AppendPhonemeScore(ctx context.Context, userID, phoneme string, score float64) (bool, error)
	IncrementCommonError(ctx context.Context, userID, errorType string) error

	SaveConversation(ctx context.Context, rec *conversation.Record) error

	AwardAchievementIfAbsent(ctx context.Context, rec *achievement.UserAchievement) (*AwardOutcome, error)
	GetUserAchievements(ctx context.Context, userID string) ([]*achievement.UserAchievement, error)

	GetStreak(ctx context.Context, userID string) (*streak.Streak, error)
	InsertStreak(ctx context.Context, st *streak.Streak) (bool, error)
	// CompareAndSwapStreak applies the update only while the stored
	// last_practice_date still matches expectedLast. Returns false when a
	// concurrent writer got there first.
	CompareAndSwapStreak(ctx context.Context, userID string, expectedLast *time.Time, st *streak.Streak) (bool, error)

	TopUsersByPoints(ctx context.Context, limit int) ([]*user.User, error)
	CountUsersWithPointsGreaterThan(ctx context.Context, threshold int) (int, error)
}
