package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cinelog/models"
	"cinelog/services/watchlist"

	"github.com/gorilla/mux"
)

type watchlistService interface {
	List(userID string) ([]models.WatchlistItem, error)
	Add(userID string, input models.WatchlistUpsert) (models.WatchlistItem, error)
	Remove(userID string, movieID int64) (bool, error)
}

var _ watchlistService = (*watchlist.Service)(nil)

type WatchlistHandler struct {
	Service watchlistService
	Users   usersService
}

func NewWatchlistHandler(service watchlistService, users usersService) *WatchlistHandler {
	return &WatchlistHandler{Service: service, Users: users}
}

func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	items, err := h.Service.List(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	var body models.WatchlistUpsert
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Add(userID, body)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, watchlist.ErrMovieIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	movieID, err := parseMovieID(mux.Vars(r)["movieID"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Removal is idempotent: deleting an absent entry is still a 204.
	if _, err := h.Service.Remove(userID, movieID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *WatchlistHandler) resolveUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
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

func parseMovieID(raw string) (int64, error) {
	movieID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || movieID <= 0 {
		return 0, errors.New("movie id must be a positive integer")
	}
	return movieID, nil
}
