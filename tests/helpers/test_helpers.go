package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// SetupTestDB connects to the test database, skipping the caller when no
// database is configured.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	if err := godotenv.Load("../../.env"); err != nil {
		_ = godotenv.Load()
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestUser removes everything written for one test user.
func CleanupTestUser(t *testing.T, pool *pgxpool.Pool, userID string) {
	ctx := context.Background()
	for _, table := range []string{"conversations", "achievements", "phoneme_scores", "streaks", "progress", "users"} {
		column := "user_id"
		if table == "users" {
			column = "id"
		}
		if _, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, column), userID); err != nil {
			t.Logf("Warning: failed to clean %s: %v", table, err)
		}
	}
}

// TestUserID builds a unique throwaway user id.
func TestUserID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
