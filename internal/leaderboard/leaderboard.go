package leaderboard

// Entry is a derived view, never persisted.
type Entry struct {
	UserID        string  `json:"user_id" db:"user_id"`
	DisplayName   string  `json:"display_name" db:"display_name"`
	TotalPoints   int     `json:"total_points" db:"total_points"`
	CurrentStreak int     `json:"current_streak" db:"current_streak"`
	Rank          int     `json:"rank"`
	Country       *string `json:"country,omitempty" db:"country"`
}

type Leaderboard struct {
	Entries    []*Entry `json:"leaderboard"`
	TotalUsers int      `json:"total_users"`
}
