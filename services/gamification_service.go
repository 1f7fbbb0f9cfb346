package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"linguaTutorAPI/internal/achievement"
	"linguaTutorAPI/internal/stats"
	"linguaTutorAPI/internal/user"
)

// achievementDefinitions is the fixed catalog of unlockables and the points
// each grants at award time.
var achievementDefinitions = map[achievement.Type]achievement.Definition{
	achievement.TypeFirstConversation: {
		Type:        achievement.TypeFirstConversation,
		Title:       "First Steps",
		Description: "Completed your first conversation",
		Icon:        "🎯",
		Points:      10,
	},
	achievement.TypeTenConversations: {
		Type:        achievement.TypeTenConversations,
		Title:       "Conversationalist",
		Description: "Completed 10 conversations",
		Icon:        "💬",
		Points:      40,
	},
	achievement.TypeFiftyConversations: {
		Type:        achievement.TypeFiftyConversations,
		Title:       "Language Enthusiast",
		Description: "Completed 50 conversations",
		Icon:        "🌟",
		Points:      100,
	},
	achievement.TypeHundredConversations: {
		Type:        achievement.TypeHundredConversations,
		Title:       "Language Expert",
		Description: "Completed 100 conversations",
		Icon:        "🏆",
		Points:      250,
	},
	achievement.TypePronunciationMaster: {
		Type:        achievement.TypePronunciationMaster,
		Title:       "Pronunciation Master",
		Description: "Achieved 90+ pronunciation score",
		Icon:        "🎤",
		Points:      30,
	},
	achievement.TypeErrorFree: {
		Type:        achievement.TypeErrorFree,
		Title:       "Perfect Practice",
		Description: "Completed a conversation with no errors",
		Icon:        "💎",
		Points:      25,
	},
	achievement.TypeWeekStreak: {
		Type:        achievement.TypeWeekStreak,
		Title:       "Week Warrior",
		Description: "Practiced for 7 days in a row",
		Icon:        "🔥",
		Points:      50,
	},
	achievement.TypeMonthStreak: {
		Type:        achievement.TypeMonthStreak,
		Title:       "Monthly Master",
		Description: "Practiced for 30 days in a row",
		Icon:        "⭐",
		Points:      200,
	},
}

// AchievementInput is the post-update state a completion event is judged
// against.
type AchievementInput struct {
	TotalConversations int
	PronunciationScore float64
	ErrorCount         int
	CurrentStreak      int
}

type achievementRule struct {
	achievementType achievement.Type
	satisfied       func(in AchievementInput) bool
	metadata        func(in AchievementInput) map[string]any
}

// achievementRules is evaluated group by group in order; within a group the
// first satisfied rule wins and the rest are skipped (the 10/50/100 and 7/30
// milestones are mutually exclusive per event).
var achievementRules = [][]achievementRule{
	{
		{achievementType: achievement.TypeFirstConversation,
			satisfied: func(in AchievementInput) bool { return in.TotalConversations == 1 }},
	},
	{
		{achievementType: achievement.TypeTenConversations,
			satisfied: func(in AchievementInput) bool { return in.TotalConversations == 10 }},
		{achievementType: achievement.TypeFiftyConversations,
			satisfied: func(in AchievementInput) bool { return in.TotalConversations == 50 }},
		{achievementType: achievement.TypeHundredConversations,
			satisfied: func(in AchievementInput) bool { return in.TotalConversations == 100 }},
	},
	{
		{achievementType: achievement.TypePronunciationMaster,
			satisfied: func(in AchievementInput) bool { return in.PronunciationScore >= 90 },
			metadata: func(in AchievementInput) map[string]any {
				return map[string]any{"score": in.PronunciationScore}
			}},
	},
	{
		{achievementType: achievement.TypeErrorFree,
			satisfied: func(in AchievementInput) bool { return in.ErrorCount == 0 }},
	},
	{
		{achievementType: achievement.TypeWeekStreak,
			satisfied: func(in AchievementInput) bool { return in.CurrentStreak == 7 }},
		{achievementType: achievement.TypeMonthStreak,
			satisfied: func(in AchievementInput) bool { return in.CurrentStreak == 30 }},
	},
}

// ValidateAchievementDefinitions rejects broken point values. A failure here
// is a deployment configuration error; main treats it as fatal.
func ValidateAchievementDefinitions() error {
	for _, group := range achievementRules {
		for _, rule := range group {
			def, ok := achievementDefinitions[rule.achievementType]
			if !ok {
				return fmt.Errorf("achievement rule %q has no definition", rule.achievementType)
			}
			if def.Points < 0 {
				return fmt.Errorf("achievement %q has negative points %d", def.Type, def.Points)
			}
		}
	}
	return nil
}

// AvailableAchievements lists the full catalog in rule evaluation order.
func AvailableAchievements() []achievement.Definition {
	var defs []achievement.Definition
	for _, group := range achievementRules {
		for _, rule := range group {
			defs = append(defs, achievementDefinitions[rule.achievementType])
		}
	}
	return defs
}

// GamificationService awards points and achievements against the injected
// store.
type GamificationService struct {
	store         ProgressStore
	pronunciation *PronunciationService
}

func NewGamificationService(store ProgressStore) *GamificationService {
	return &GamificationService{store: store, pronunciation: NewPronunciationService()}
}

// CalculateConversationPoints maps one session's metrics to a point award:
// 5 base, up to 10 for pronunciation, up to -5 for errors, 1 per 30s of
// practice capped at 10, floored at 1.
func (s *GamificationService) CalculateConversationPoints(pronunciationScore float64, errorCount int, sessionDurationSeconds float64) int {
	basePoints := 5

	pronunciationBonus := int(pronunciationScore / 10)

	errorPenalty := errorCount
	if errorPenalty > 5 {
		errorPenalty = 5
	}

	durationBonus := int(sessionDurationSeconds / 30)
	if durationBonus > 10 {
		durationBonus = 10
	}

	totalPoints := basePoints + pronunciationBonus - errorPenalty + durationBonus
	if totalPoints < 1 {
		totalPoints = 1
	}
	return totalPoints
}

// CheckAndAwardAchievements evaluates the rule table against the post-update
// state and grants whatever is newly unlocked. Awarding is idempotent: the
// store's insert-if-absent decides whether points flow, so repeated or
// concurrent triggers cannot double-grant.
func (s *GamificationService) CheckAndAwardAchievements(ctx context.Context, userID string, in AchievementInput) ([]*achievement.UserAchievement, error) {
	var newlyAwarded []*achievement.UserAchievement

	for _, group := range achievementRules {
		for _, rule := range group {
			if !rule.satisfied(in) {
				continue
			}

			def := achievementDefinitions[rule.achievementType]
			rec := &achievement.UserAchievement{
				ID:          uuid.New(),
				UserID:      userID,
				Type:        def.Type,
				Title:       def.Title,
				Description: def.Description,
				Icon:        def.Icon,
				Points:      def.Points,
				EarnedAt:    time.Now(),
			}
			if rule.metadata != nil {
				rec.Metadata = rule.metadata(in)
			}

			outcome, err := s.store.AwardAchievementIfAbsent(ctx, rec)
			if err != nil {
				return nil, fmt.Errorf("failed to award %s: %w", def.Type, err)
			}

			if outcome.Created {
				if _, err := s.store.IncrementPoints(ctx, userID, def.Points); err != nil {
					return nil, fmt.Errorf("failed to grant points for %s: %w", def.Type, err)
				}
				newlyAwarded = append(newlyAwarded, rec)
				log.Printf("Awarded %s to user %s (+%d points)", def.Type, userID, def.Points)
			} else {
				rec.ID = outcome.ExistingID
			}

			// First satisfied rule in an exclusive group ends the group.
			break
		}
	}

	return newlyAwarded, nil
}

// GetUserStats assembles the dashboard view. Unknown users are bootstrapped
// with defaults rather than treated as an error.
func (s *GamificationService) GetUserStats(ctx context.Context, userID string) (*stats.UserStats, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		u, err = s.store.CreateUser(ctx, &user.CreateUserRequest{ID: userID, DisplayName: "Anonymous"})
		if err != nil {
			return nil, fmt.Errorf("failed to bootstrap user: %w", err)
		}
	}

	prog, err := s.store.GetOrCreateProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	for phoneme, pp := range prog.PronunciationProgress {
		if len(pp.Scores) >= 2 {
			half := len(pp.Scores) / 2
			pp.ImprovementPercentage = s.pronunciation.CalculateImprovement(pp.Scores[:half], pp.Scores[half:])
			prog.PronunciationProgress[phoneme] = pp
		}
	}

	achievements, err := s.store.GetUserAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	ahead, err := s.store.CountUsersWithPointsGreaterThan(ctx, u.TotalPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to compute rank: %w", err)
	}

	return &stats.UserStats{
		User: stats.UserSummary{
			DisplayName:   u.DisplayName,
			Level:         u.Level,
			TotalPoints:   u.TotalPoints,
			CurrentStreak: u.CurrentStreak,
			LongestStreak: u.LongestStreak,
			Rank:          ahead + 1,
		},
		Progress: stats.ProgressSummary{
			TotalConversations:        prog.TotalConversations,
			OverallPronunciationScore: prog.OverallPronunciationScore,
			PronunciationProgress:     prog.PronunciationProgress,
			CommonErrors:              prog.CommonErrors,
		},
		Achievements: achievements,
	}, nil
}
