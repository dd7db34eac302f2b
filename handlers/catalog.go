package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"cinelog/models"
	"cinelog/services/catalog"

	"github.com/gorilla/mux"
)

type catalogService interface {
	Trending(ctx context.Context) ([]models.TrendingItem, error)
	Popular(ctx context.Context) ([]models.TrendingItem, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	MovieDetails(ctx context.Context, movieID int64) (models.Movie, error)
}

var _ catalogService = (*catalog.Service)(nil)

type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{Service: service}
}

func (h *CatalogHandler) Trending(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Trending(r.Context())
	if err != nil {
		http.Error(w, err.Error(), catalogErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *CatalogHandler) Popular(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Popular(r.Context())
	if err != nil {
		http.Error(w, err.Error(), catalogErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.Service.Search(r.Context(), query)
	if err != nil {
		http.Error(w, err.Error(), catalogErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (h *CatalogHandler) MovieDetails(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseMovieID(mux.Vars(r)["movieID"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	movie, err := h.Service.MovieDetails(r.Context(), movieID)
	if err != nil {
		http.Error(w, err.Error(), catalogErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movie)
}

func (h *CatalogHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func catalogErrorStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrQueryRequired), errors.Is(err, catalog.ErrMovieIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
