package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"cinelog/models"
	"cinelog/services/ratings"

	"github.com/gorilla/mux"
)

type ratingsService interface {
	Upsert(ctx context.Context, userID string, input models.RatingUpsert) (models.WatchedMovie, error)
	ListByUser(ctx context.Context, userID string) ([]models.WatchedMovie, error)
	Get(ctx context.Context, userID string, movieID int64) (models.WatchedMovie, error)
}

var _ ratingsService = (*ratings.Service)(nil)

type RatingsHandler struct {
	Service ratingsService
	Users   usersService
}

func NewRatingsHandler(service ratingsService, users usersService) *RatingsHandler {
	return &RatingsHandler{Service: service, Users: users}
}

// List returns the user's watched movies, most recently watched first.
func (h *RatingsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	watched, err := h.Service.ListByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(watched)
}

// Upsert records or overwrites the user's rating of a movie. Rating a movie
// marks it watched and drops it from the watchlist.
func (h *RatingsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	var body models.RatingUpsert
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	watched, err := h.Service.Upsert(r.Context(), userID, body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ratings.ErrMovieIDRequired),
			errors.Is(err, ratings.ErrRatingOutOfRange):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(watched)
}

// Get returns a single rating, 404 when the user never rated the movie.
func (h *RatingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	movieID, err := parseMovieID(mux.Vars(r)["movieID"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	watched, err := h.Service.Get(r.Context(), userID, movieID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ratings.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(watched)
}

func (h *RatingsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *RatingsHandler) resolveUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := mux.Vars(r)["userID"]
	if userID == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return "", false
	}
	if h.Users != nil && !h.Users.Exists(userID) {
		http.Error(w, "user not found", http.StatusNotFound)
		return "", false
	}
	return userID, true
}
