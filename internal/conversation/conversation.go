package conversation

import (
	"time"

	"github.com/google/uuid"

	"linguaTutorAPI/internal/achievement"
	"linguaTutorAPI/internal/progress"
	"linguaTutorAPI/internal/streak"
)

// WordConfidence is one recognizer-reported (word, confidence) pair,
// confidence in [0,1].
type WordConfidence struct {
	Word       string  `json:"word"`
	Confidence float64 `json:"confidence"`
}

// Result is the upstream input for one completed conversation. Errors is
// optional detail; when absent ErrorCount alone drives scoring.
type Result struct {
	UserID                 string                 `json:"user_id"`
	WordConfidences        []WordConfidence       `json:"word_confidences"`
	ErrorCount             int                    `json:"error_count"`
	Errors                 []progress.ErrorDetail `json:"errors,omitempty"`
	SessionDurationSeconds float64                `json:"session_duration_seconds"`
}

// Record is the persisted conversation row.
type Record struct {
	ID                     uuid.UUID `json:"id" db:"id"`
	UserID                 string    `json:"user_id" db:"user_id"`
	PronunciationScore     float64   `json:"pronunciation_score" db:"pronunciation_score"`
	ProblematicPhonemes    []string  `json:"problematic_phonemes"`
	ErrorCount             int       `json:"error_count" db:"error_count"`
	SessionDurationSeconds float64   `json:"session_duration_seconds" db:"session_duration_seconds"`
	PointsAwarded          int       `json:"points_awarded" db:"points_awarded"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
}

type PronunciationSummary struct {
	Score               float64  `json:"score"`
	Feedback            string   `json:"feedback"`
	ProblematicPhonemes []string `json:"problematic_phonemes"`
}

// Summary is the per-conversation output handed to presentation layers.
type Summary struct {
	Pronunciation       PronunciationSummary           `json:"pronunciation"`
	PointsAwarded       int                            `json:"points_awarded"`
	Streak              streak.UpdateResult            `json:"streak"`
	AchievementsAwarded []*achievement.UserAchievement `json:"achievements_awarded"`
}
