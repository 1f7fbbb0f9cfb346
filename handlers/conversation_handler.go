package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"linguaTutorAPI/internal/conversation"
	"linguaTutorAPI/middleware"
	"linguaTutorAPI/services"
)

type ConversationHandler struct {
	conversationService *services.ConversationService
}

func NewConversationHandler(conversationService *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
	}
}

// POST /conversation/complete
func (h *ConversationHandler) CompleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req conversation.Result
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	if req.ErrorCount < 0 || req.SessionDurationSeconds < 0 {
		respondWithError(w, http.StatusBadRequest, "error_count and session_duration_seconds must be non-negative")
		return
	}
	for _, wc := range req.WordConfidences {
		if wc.Confidence < 0 || wc.Confidence > 1 {
			respondWithError(w, http.StatusBadRequest, "word confidence must be within [0,1]")
			return
		}
	}

	summary, err := h.conversationService.CompleteConversation(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to process conversation")
		return
	}

	middleware.CountConversationCompleted()
	for _, ach := range summary.AchievementsAwarded {
		middleware.CountAchievementAwarded(string(ach.Type))
	}

	respondWithJSON(w, http.StatusOK, summary)
}
