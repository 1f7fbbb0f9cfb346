package progress

import "time"

// PhonemeProgress is the append-only score history for one phoneme category.
type PhonemeProgress struct {
	Phoneme               string    `json:"phoneme" db:"phoneme"`
	Scores                []float64 `json:"scores"`
	LastPracticeDate      time.Time `json:"last_practice_date" db:"last_practice_date"`
	ImprovementPercentage float64   `json:"improvement_percentage"`
}

// Progress aggregates per-user learning counters. One row per user, created
// lazily on first access and updated additively after that.
type Progress struct {
	UserID                    string                     `json:"user_id" db:"user_id"`
	TotalConversations        int                        `json:"total_conversations" db:"total_conversations"`
	OverallPronunciationScore float64                    `json:"overall_pronunciation_score" db:"overall_pronunciation_score"`
	PronunciationProgress     map[string]PhonemeProgress `json:"pronunciation_progress"`
	CommonErrors              map[string]int             `json:"common_errors"`
	UpdatedAt                 time.Time                  `json:"updated_at" db:"updated_at"`
}

// ErrorDetail carries one grammar mistake from the upstream analysis. Only
// ErrorType feeds the common_errors counters; the rest is presentation data.
type ErrorDetail struct {
	ErrorType     string `json:"error_type"`
	IncorrectWord string `json:"incorrect_word"`
	CorrectWord   string `json:"correct_word"`
	Explanation   string `json:"explanation"`
}
