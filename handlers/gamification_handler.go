package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"linguaTutorAPI/middleware"
	"linguaTutorAPI/services"
)

type GamificationHandler struct {
	gamificationService *services.GamificationService
	leaderboardService  *services.LeaderboardService
}

func NewGamificationHandler(gamificationService *services.GamificationService, leaderboardService *services.LeaderboardService) *GamificationHandler {
	return &GamificationHandler{
		gamificationService: gamificationService,
		leaderboardService:  leaderboardService,
	}
}

// GET /gamification/stats
func (h *GamificationHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	stats, err := h.gamificationService.GetUserStats(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load user stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GET /gamification/leaderboard?limit=&country=
func (h *GamificationHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	var country *string
	if c := r.URL.Query().Get("country"); c != "" {
		country = &c
	}

	board, err := h.leaderboardService.GetLeaderboard(ctx, limit, country)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

// GET /gamification/rank
func (h *GamificationHandler) GetUserRank(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	rank, err := h.leaderboardService.GetUserRank(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to compute rank")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"rank": rank})
}

// GET /gamification/achievements/available
func (h *GamificationHandler) GetAvailableAchievements(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"achievements": services.AvailableAchievements(),
	})
}

func respondWithServiceError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, services.ErrStoreUnavailable) {
		respondWithError(w, http.StatusServiceUnavailable, "Store temporarily unavailable")
		return
	}
	respondWithError(w, http.StatusInternalServerError, message)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal JSON response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
