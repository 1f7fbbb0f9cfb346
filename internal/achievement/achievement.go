package achievement

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeFirstConversation    Type = "first_conversation"
	TypeTenConversations     Type = "ten_conversations"
	TypeFiftyConversations   Type = "fifty_conversations"
	TypeHundredConversations Type = "hundred_conversations"
	TypePronunciationMaster  Type = "pronunciation_master"
	TypeErrorFree            Type = "error_free"
	TypeWeekStreak           Type = "week_streak"
	TypeMonthStreak          Type = "month_streak"
)

// Definition is one entry of the static rule table: what the unlock is called
// and how many points it grants.
type Definition struct {
	Type        Type   `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Points      int    `json:"points"`
}

// UserAchievement is a granted unlock. At most one row ever exists per
// (user, achievement type); the row is immutable once written.
type UserAchievement struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	UserID      string         `json:"user_id" db:"user_id"`
	Type        Type           `json:"achievement_type" db:"achievement_type"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Icon        string         `json:"icon" db:"icon"`
	Points      int            `json:"points" db:"points"`
	EarnedAt    time.Time      `json:"earned_at" db:"earned_at"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
}
