package user

import "time"

// User is the account record backing points, streaks and leaderboard rank.
// TotalPoints only moves upward outside manual resets; LongestStreak is
// always >= CurrentStreak.
type User struct {
	ID               string     `json:"id" db:"id"`
	DisplayName      string     `json:"display_name" db:"display_name"`
	Email            string     `json:"email" db:"email"`
	Level            string     `json:"level" db:"level"`
	TargetLanguage   string     `json:"target_language" db:"target_language"`
	Country          *string    `json:"country,omitempty" db:"country"`
	TotalPoints      int        `json:"total_points" db:"total_points"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	LastPracticeDate *time.Time `json:"last_practice_date" db:"last_practice_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateUserRequest struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Level       string  `json:"level"`
	Country     *string `json:"country,omitempty"`
}
