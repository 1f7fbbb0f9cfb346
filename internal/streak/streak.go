package streak

import "time"

// Streak holds daily-practice continuity for one user. History is append-only,
// one day-truncated entry per practiced day.
type Streak struct {
	UserID           string      `json:"user_id" db:"user_id"`
	CurrentStreak    int         `json:"current_streak" db:"current_streak"`
	LongestStreak    int         `json:"longest_streak" db:"longest_streak"`
	LastPracticeDate *time.Time  `json:"last_practice_date" db:"last_practice_date"`
	History          []time.Time `json:"streak_history"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// UpdateResult is what a practice event reports back to the caller.
// Maintained is false only when a gap broke the streak.
type UpdateResult struct {
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
	Maintained    bool `json:"streak_maintained"`
}
