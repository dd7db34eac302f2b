package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cinelog/models"
	"cinelog/services/recommend"

	"github.com/gorilla/mux"
)

type recommender interface {
	Recommend(ctx context.Context, userID string, limit int) ([]models.Recommendation, error)
}

var _ recommender = (*recommend.Engine)(nil)

type RecommendationsHandler struct {
	Engine recommender
	Users  usersService
}

func NewRecommendationsHandler(engine recommender, users usersService) *RecommendationsHandler {
	return &RecommendationsHandler{Engine: engine, Users: users}
}

// List returns personalized recommendations for the user. A user with no
// overlap with anyone else gets an empty list, not an error.
func (h *RecommendationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
	if userID == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return
	}
	if h.Users != nil && !h.Users.Exists(userID) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	limit := recommend.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	recs, err := h.Engine.Recommend(r.Context(), userID, limit)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, recommend.ErrUserIDRequired),
			errors.Is(err, recommend.ErrLimitInvalid):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recs)
}

func (h *RecommendationsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
