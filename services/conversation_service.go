package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"linguaTutorAPI/internal/achievement"
	"linguaTutorAPI/internal/conversation"
	"linguaTutorAPI/internal/user"
)

// ConversationService runs the completion pipeline: pure scoring first, then
// the store commits, then streak continuity, then achievement evaluation
// against the freshly updated counters.
type ConversationService struct {
	store         ProgressStore
	pronunciation *PronunciationService
	gamification  *GamificationService
	streaks       *StreakService
}

func NewConversationService(store ProgressStore, pronunciation *PronunciationService, gamification *GamificationService, streaks *StreakService) *ConversationService {
	return &ConversationService{
		store:         store,
		pronunciation: pronunciation,
		gamification:  gamification,
		streaks:       streaks,
	}
}

// CompleteConversation processes one finished session and returns the
// presentation payload.
func (s *ConversationService) CompleteConversation(ctx context.Context, res *conversation.Result) (*conversation.Summary, error) {
	if res.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	if err := s.ensureUser(ctx, res.UserID); err != nil {
		return nil, err
	}

	score := s.pronunciation.CalculateScore(res.WordConfidences)
	phonemes := s.pronunciation.IdentifyProblematicPhonemes(res.WordConfidences, DefaultPhonemeThreshold)
	feedback := s.pronunciation.GenerateFeedback(score, phonemes)

	errorCount := res.ErrorCount
	if errorCount == 0 && len(res.Errors) > 0 {
		errorCount = len(res.Errors)
	}

	points := s.gamification.CalculateConversationPoints(score, errorCount, res.SessionDurationSeconds)

	rec := &conversation.Record{
		ID:                     uuid.New(),
		UserID:                 res.UserID,
		PronunciationScore:     score,
		ProblematicPhonemes:    phonemes,
		ErrorCount:             errorCount,
		SessionDurationSeconds: res.SessionDurationSeconds,
		PointsAwarded:          points,
		CreatedAt:              time.Now(),
	}
	if err := s.store.SaveConversation(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist conversation: %w", err)
	}

	if _, err := s.store.IncrementConversationCount(ctx, res.UserID); err != nil {
		return nil, fmt.Errorf("failed to count conversation: %w", err)
	}
	if err := s.store.RecordSessionScore(ctx, res.UserID, score); err != nil {
		return nil, fmt.Errorf("failed to update overall score: %w", err)
	}

	for _, phoneme := range phonemes {
		if _, err := s.store.AppendPhonemeScore(ctx, res.UserID, phoneme, score); err != nil {
			return nil, fmt.Errorf("failed to record phoneme score: %w", err)
		}
	}
	for _, detail := range res.Errors {
		errorType := detail.ErrorType
		if errorType == "" {
			errorType = "other"
		}
		if err := s.store.IncrementCommonError(ctx, res.UserID, errorType); err != nil {
			return nil, fmt.Errorf("failed to record error type: %w", err)
		}
	}

	if _, err := s.store.IncrementPoints(ctx, res.UserID, points); err != nil {
		return nil, fmt.Errorf("failed to grant conversation points: %w", err)
	}

	streakResult, err := s.streaks.RecordPractice(ctx, res.UserID)
	if err != nil {
		return nil, err
	}

	prog, err := s.store.GetOrCreateProgress(ctx, res.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	awarded, err := s.gamification.CheckAndAwardAchievements(ctx, res.UserID, AchievementInput{
		TotalConversations: prog.TotalConversations,
		PronunciationScore: score,
		ErrorCount:         errorCount,
		CurrentStreak:      streakResult.CurrentStreak,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Conversation %s completed for user %s: score=%.2f points=%d streak=%d new_achievements=%d",
		rec.ID, res.UserID, score, points, streakResult.CurrentStreak, len(awarded))

	if awarded == nil {
		awarded = []*achievement.UserAchievement{}
	}

	return &conversation.Summary{
		Pronunciation: conversation.PronunciationSummary{
			Score:               score,
			Feedback:            feedback,
			ProblematicPhonemes: phonemes,
		},
		PointsAwarded:       points,
		Streak:              *streakResult,
		AchievementsAwarded: awarded,
	}, nil
}

func (s *ConversationService) ensureUser(ctx context.Context, userID string) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if u != nil {
		return nil
	}

	_, err = s.store.CreateUser(ctx, &user.CreateUserRequest{
		ID:          userID,
		DisplayName: "Anonymous",
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap user: %w", err)
	}
	return nil
}
