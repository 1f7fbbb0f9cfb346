package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linguaTutorAPI/internal/achievement"
	"linguaTutorAPI/internal/conversation"
	"linguaTutorAPI/internal/progress"
	"linguaTutorAPI/internal/streak"
	"linguaTutorAPI/internal/user"
)

// PostgresStore implements ProgressStore on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	query := `
	SELECT id, display_name, email, level, target_language, country, total_points,
	       current_streak, longest_streak, last_practice_date, created_at, updated_at
	FROM users
	WHERE id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.DisplayName,
		&u.Email,
		&u.Level,
		&u.TargetLanguage,
		&u.Country,
		&u.TotalPoints,
		&u.CurrentStreak,
		&u.LongestStreak,
		&u.LastPracticeDate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("failed to get user", err)
	}

	return u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	level := req.Level
	if level == "" {
		level = "beginner"
	}

	u := &user.User{
		ID:             req.ID,
		DisplayName:    req.DisplayName,
		Email:          req.Email,
		Level:          level,
		TargetLanguage: "en-US",
		Country:        req.Country,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	query := `
	INSERT INTO users (id, display_name, email, level, target_language, country, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
	`

	if _, err := s.db.Exec(ctx, query,
		u.ID, u.DisplayName, u.Email, u.Level, u.TargetLanguage, u.Country, u.CreatedAt, u.UpdatedAt,
	); err != nil {
		return nil, storeErr("failed to create user", err)
	}

	// Concurrent first requests can race the insert; read back the winner.
	created, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, storeErr("failed to create user", pgx.ErrNoRows)
	}
	return created, nil
}

func (s *PostgresStore) IncrementPoints(ctx context.Context, userID string, delta int) (bool, error) {
	query := `
	UPDATE users
	SET total_points = total_points + $2, updated_at = NOW()
	WHERE id = $1
	`

	result, err := s.db.Exec(ctx, query, userID, delta)
	if err != nil {
		return false, storeErr("failed to increment points", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateUserStreak(ctx context.Context, userID string, current, longest int, lastPractice time.Time) error {
	query := `
	UPDATE users
	SET current_streak = $2, longest_streak = $3, last_practice_date = $4, updated_at = NOW()
	WHERE id = $1
	`

	if _, err := s.db.Exec(ctx, query, userID, current, longest, lastPractice); err != nil {
		return storeErr("failed to update user streak", err)
	}
	return nil
}

func (s *PostgresStore) GetOrCreateProgress(ctx context.Context, userID string) (*progress.Progress, error) {
	insert := `
	INSERT INTO progress (user_id, total_conversations, overall_pronunciation_score, common_errors, updated_at)
	VALUES ($1, 0, 0, '{}'::jsonb, NOW())
	ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := s.db.Exec(ctx, insert, userID); err != nil {
		return nil, storeErr("failed to init progress", err)
	}

	query := `
	SELECT user_id, total_conversations, overall_pronunciation_score, common_errors, updated_at
	FROM progress
	WHERE user_id = $1
	`

	p := &progress.Progress{}
	var commonErrors []byte
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.TotalConversations,
		&p.OverallPronunciationScore,
		&commonErrors,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, storeErr("failed to get progress", err)
	}

	p.CommonErrors = map[string]int{}
	if len(commonErrors) > 0 {
		if err := json.Unmarshal(commonErrors, &p.CommonErrors); err != nil {
			return nil, fmt.Errorf("failed to decode common errors: %w", err)
		}
	}

	p.PronunciationProgress, err = s.phonemeHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (s *PostgresStore) phonemeHistory(ctx context.Context, userID string) (map[string]progress.PhonemeProgress, error) {
	query := `
	SELECT phoneme, score, recorded_at
	FROM phoneme_scores
	WHERE user_id = $1
	ORDER BY recorded_at ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storeErr("failed to fetch phoneme history", err)
	}
	defer rows.Close()

	history := map[string]progress.PhonemeProgress{}
	for rows.Next() {
		var phoneme string
		var score float64
		var recordedAt time.Time
		if err := rows.Scan(&phoneme, &score, &recordedAt); err != nil {
			return nil, storeErr("failed to scan phoneme score", err)
		}

		entry := history[phoneme]
		entry.Phoneme = phoneme
		entry.Scores = append(entry.Scores, score)
		entry.LastPracticeDate = recordedAt
		history[phoneme] = entry
	}

	return history, rows.Err()
}

func (s *PostgresStore) IncrementConversationCount(ctx context.Context, userID string) (bool, error) {
	query := `
	INSERT INTO progress (user_id, total_conversations, overall_pronunciation_score, common_errors, updated_at)
	VALUES ($1, 1, 0, '{}'::jsonb, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET total_conversations = progress.total_conversations + 1, updated_at = NOW()
	`

	result, err := s.db.Exec(ctx, query, userID)
	if err != nil {
		return false, storeErr("failed to increment conversation count", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *PostgresStore) RecordSessionScore(ctx context.Context, userID string, score float64) error {
	// Running average over the already-incremented conversation counter.
	query := `
	UPDATE progress
	SET overall_pronunciation_score = ROUND(
	        ((overall_pronunciation_score * GREATEST(total_conversations - 1, 0)) + $2)::numeric
	        / GREATEST(total_conversations, 1), 2),
	    updated_at = NOW()
	WHERE user_id = $1
	`

	if _, err := s.db.Exec(ctx, query, userID, score); err != nil {
		return storeErr("failed to record session score", err)
	}
	return nil
}

func (s *PostgresStore) AppendPhonemeScore(ctx context.Context, userID, phoneme string, score float64) (bool, error) {
	query := `
	INSERT INTO phoneme_scores (id, user_id, phoneme, score, recorded_at)
	VALUES ($1, $2, $3, $4, NOW())
	`

	result, err := s.db.Exec(ctx, query, uuid.New(), userID, phoneme, score)
	if err != nil {
		return false, storeErr("failed to append phoneme score", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *PostgresStore) IncrementCommonError(ctx context.Context, userID, errorType string) error {
	query := `
	UPDATE progress
	SET common_errors = jsonb_set(
	        COALESCE(common_errors, '{}'::jsonb),
	        ARRAY[$2],
	        to_jsonb(COALESCE((common_errors ->> $2)::int, 0) + 1),
	        true),
	    updated_at = NOW()
	WHERE user_id = $1
	`

	if _, err := s.db.Exec(ctx, query, userID, errorType); err != nil {
		return storeErr("failed to increment common error", err)
	}
	return nil
}

func (s *PostgresStore) SaveConversation(ctx context.Context, rec *conversation.Record) error {
	query := `
	INSERT INTO conversations (id, user_id, pronunciation_score, problematic_phonemes,
	                           error_count, session_duration_seconds, points_awarded, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.PronunciationScore,
		rec.ProblematicPhonemes,
		rec.ErrorCount,
		rec.SessionDurationSeconds,
		rec.PointsAwarded,
		rec.CreatedAt,
	)
	if err != nil {
		return storeErr("failed to save conversation", err)
	}
	return nil
}

func (s *PostgresStore) AwardAchievementIfAbsent(ctx context.Context, rec *achievement.UserAchievement) (*AwardOutcome, error) {
	var metadata []byte
	if rec.Metadata != nil {
		var err error
		metadata, err = json.Marshal(rec.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode achievement metadata: %w", err)
		}
	}

	// The unique index on (user_id, achievement_type) makes this the single
	// atomic check-then-act; losing the race just means no returned row.
	insert := `
	INSERT INTO achievements (id, user_id, achievement_type, title, description, icon, points, metadata, earned_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (user_id, achievement_type) DO NOTHING
	RETURNING id
	`

	var id uuid.UUID
	err := s.db.QueryRow(ctx, insert,
		rec.ID, rec.UserID, rec.Type, rec.Title, rec.Description, rec.Icon, rec.Points, metadata, rec.EarnedAt,
	).Scan(&id)

	if err == nil {
		return &AwardOutcome{Created: true, ExistingID: id}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeErr("failed to award achievement", err)
	}

	var existingID uuid.UUID
	err = s.db.QueryRow(ctx,
		`SELECT id FROM achievements WHERE user_id = $1 AND achievement_type = $2`,
		rec.UserID, rec.Type,
	).Scan(&existingID)
	if err != nil {
		return nil, storeErr("failed to look up existing achievement", err)
	}

	return &AwardOutcome{Created: false, ExistingID: existingID}, nil
}

func (s *PostgresStore) GetUserAchievements(ctx context.Context, userID string) ([]*achievement.UserAchievement, error) {
	query := `
	SELECT id, user_id, achievement_type, title, description, icon, points, metadata, earned_at
	FROM achievements
	WHERE user_id = $1
	ORDER BY earned_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storeErr("failed to fetch achievements", err)
	}
	defer rows.Close()

	var achievements []*achievement.UserAchievement
	for rows.Next() {
		ach := &achievement.UserAchievement{}
		var metadata []byte
		err := rows.Scan(
			&ach.ID,
			&ach.UserID,
			&ach.Type,
			&ach.Title,
			&ach.Description,
			&ach.Icon,
			&ach.Points,
			&metadata,
			&ach.EarnedAt,
		)
		if err != nil {
			return nil, storeErr("failed to scan achievement", err)
		}

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ach.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode achievement metadata: %w", err)
			}
		}

		achievements = append(achievements, ach)
	}

	return achievements, rows.Err()
}

func (s *PostgresStore) GetStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	query := `
	SELECT user_id, current_streak, longest_streak, last_practice_date, streak_history, created_at, updated_at
	FROM streaks
	WHERE user_id = $1
	`

	st := &streak.Streak{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastPracticeDate,
		&st.History,
		&st.CreatedAt,
		&st.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("failed to get streak", err)
	}

	return st, nil
}

func (s *PostgresStore) InsertStreak(ctx context.Context, st *streak.Streak) (bool, error) {
	query := `
	INSERT INTO streaks (user_id, current_streak, longest_streak, last_practice_date, streak_history, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id) DO NOTHING
	`

	result, err := s.db.Exec(ctx, query,
		st.UserID, st.CurrentStreak, st.LongestStreak, st.LastPracticeDate, st.History,
	)
	if err != nil {
		return false, storeErr("failed to insert streak", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *PostgresStore) CompareAndSwapStreak(ctx context.Context, userID string, expectedLast *time.Time, st *streak.Streak) (bool, error) {
	query := `
	UPDATE streaks
	SET current_streak = $2,
	    longest_streak = $3,
	    last_practice_date = $4,
	    streak_history = array_append(streak_history, $5),
	    updated_at = NOW()
	WHERE user_id = $1 AND last_practice_date IS NOT DISTINCT FROM $6
	`

	var appended *time.Time
	if n := len(st.History); n > 0 {
		appended = &st.History[n-1]
	}

	result, err := s.db.Exec(ctx, query,
		userID, st.CurrentStreak, st.LongestStreak, st.LastPracticeDate, appended, expectedLast,
	)
	if err != nil {
		return false, storeErr("failed to update streak", err)
	}

	return result.RowsAffected() > 0, nil
}

func (s *PostgresStore) TopUsersByPoints(ctx context.Context, limit int) ([]*user.User, error) {
	query := `
	SELECT id, display_name, email, level, target_language, country, total_points,
	       current_streak, longest_streak, last_practice_date, created_at, updated_at
	FROM users
	ORDER BY total_points DESC, created_at ASC
	LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, storeErr("failed to fetch top users", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.DisplayName,
			&u.Email,
			&u.Level,
			&u.TargetLanguage,
			&u.Country,
			&u.TotalPoints,
			&u.CurrentStreak,
			&u.LongestStreak,
			&u.LastPracticeDate,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, storeErr("failed to scan user", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (s *PostgresStore) CountUsersWithPointsGreaterThan(ctx context.Context, threshold int) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE total_points > $1`, threshold,
	).Scan(&count)
	if err != nil {
		return 0, storeErr("failed to count users", err)
	}
	return count, nil
}
