package stats

import (
	"linguaTutorAPI/internal/achievement"
	"linguaTutorAPI/internal/progress"
)

type UserSummary struct {
	DisplayName   string `json:"display_name"`
	Level         string `json:"level"`
	TotalPoints   int    `json:"total_points"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	Rank          int    `json:"rank"`
}

type ProgressSummary struct {
	TotalConversations        int                                 `json:"total_conversations"`
	OverallPronunciationScore float64                             `json:"overall_pronunciation_score"`
	PronunciationProgress     map[string]progress.PhonemeProgress `json:"pronunciation_progress"`
	CommonErrors              map[string]int                      `json:"common_errors"`
}

// UserStats is the on-demand dashboard view: account, aggregates and earned
// achievements in one payload.
type UserStats struct {
	User         UserSummary                    `json:"user"`
	Progress     ProgressSummary                `json:"progress"`
	Achievements []*achievement.UserAchievement `json:"achievements"`
}
