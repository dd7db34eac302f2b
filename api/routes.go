package api

import (
	"encoding/json"
	"net/http"

	"cinelog/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	settingsHandler *handlers.SettingsHandler,
	usersHandler *handlers.UsersHandler,
	watchlistHandler *handlers.WatchlistHandler,
	ratingsHandler *handlers.RatingsHandler,
	recommendationsHandler *handlers.RecommendationsHandler,
	catalogHandler *handlers.CatalogHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	// Server settings
	api.HandleFunc("/settings", settingsHandler.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", settingsHandler.PutSettings).Methods(http.MethodPut)
	api.HandleFunc("/settings", settingsHandler.Options).Methods(http.MethodOptions)

	// Catalog browsing
	api.HandleFunc("/catalog/search", catalogHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/catalog/search", catalogHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/trending", catalogHandler.Trending).Methods(http.MethodGet)
	api.HandleFunc("/catalog/trending", catalogHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/popular", catalogHandler.Popular).Methods(http.MethodGet)
	api.HandleFunc("/catalog/popular", catalogHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/movies/{movieID}", catalogHandler.MovieDetails).Methods(http.MethodGet)
	api.HandleFunc("/catalog/movies/{movieID}", catalogHandler.Options).Methods(http.MethodOptions)

	// User profiles
	profiles := api.PathPrefix("/users").Subrouter()
	profiles.HandleFunc("", usersHandler.List).Methods(http.MethodGet)
	profiles.HandleFunc("", usersHandler.Create).Methods(http.MethodPost)
	profiles.HandleFunc("", usersHandler.Options).Methods(http.MethodOptions)
	profiles.HandleFunc("/{userID}", usersHandler.Rename).Methods(http.MethodPatch)
	profiles.HandleFunc("/{userID}", usersHandler.Delete).Methods(http.MethodDelete)
	profiles.HandleFunc("/{userID}", usersHandler.Options).Methods(http.MethodOptions)
	profiles.HandleFunc("/{userID}/color", usersHandler.SetColor).Methods(http.MethodPut)
	profiles.HandleFunc("/{userID}/color", usersHandler.Options).Methods(http.MethodOptions)

	// Per-user watchlist
	profiles.HandleFunc("/{userID}/watchlist", watchlistHandler.List).Methods(http.MethodGet)
	profiles.HandleFunc("/{userID}/watchlist", watchlistHandler.Add).Methods(http.MethodPost)
	profiles.HandleFunc("/{userID}/watchlist", watchlistHandler.Options).Methods(http.MethodOptions)
	profiles.HandleFunc("/{userID}/watchlist/{movieID}", watchlistHandler.Remove).Methods(http.MethodDelete)
	profiles.HandleFunc("/{userID}/watchlist/{movieID}", watchlistHandler.Options).Methods(http.MethodOptions)

	// Per-user ratings (watched history)
	profiles.HandleFunc("/{userID}/ratings", ratingsHandler.List).Methods(http.MethodGet)
	profiles.HandleFunc("/{userID}/ratings", ratingsHandler.Upsert).Methods(http.MethodPost)
	profiles.HandleFunc("/{userID}/ratings", ratingsHandler.Options).Methods(http.MethodOptions)
	profiles.HandleFunc("/{userID}/ratings/{movieID}", ratingsHandler.Get).Methods(http.MethodGet)
	profiles.HandleFunc("/{userID}/ratings/{movieID}", ratingsHandler.Options).Methods(http.MethodOptions)

	// Per-user recommendations
	profiles.HandleFunc("/{userID}/recommendations", recommendationsHandler.List).Methods(http.MethodGet)
	profiles.HandleFunc("/{userID}/recommendations", recommendationsHandler.Options).Methods(http.MethodOptions)
}
