package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"cinelog/models"
	"cinelog/utils/similarity"
)

var (
	ErrQueryRequired   = errors.New("search query is required")
	ErrMovieIDRequired = errors.New("movie id is required")
	ErrNotConfigured   = errors.New("catalog provider is not configured")
)

// Service exposes the movie catalog backed by TMDB. Responses are cached on
// disk so repeated browsing does not hammer the upstream API.
type Service struct {
	tmdb  *tmdbClient
	cache *fileCache

	ttlHours int
}

func NewService(apiKey, language, cacheDir string, ttlHours int) *Service {
	return &Service{
		tmdb:     newTMDBClient(apiKey, language, &http.Client{}),
		cache:    newFileCache(filepath.Join(cacheDir, "catalog"), ttlHours),
		ttlHours: ttlHours,
	}
}

// UpdateCredentials swaps the TMDB API key and language at runtime so settings
// changes apply without a restart. Cached responses are cleared because they
// may have been fetched in the old language.
func (s *Service) UpdateCredentials(apiKey, language string) {
	s.tmdb = newTMDBClient(apiKey, language, &http.Client{})
	if err := s.cache.clear(); err != nil {
		log.Printf("[catalog] warning: failed to clear cache: %v", err)
	}
}

// Trending returns this week's trending movies ranked by TMDB.
func (s *Service) Trending(ctx context.Context) ([]models.TrendingItem, error) {
	if !s.tmdb.isConfigured() {
		return nil, ErrNotConfigured
	}

	key := cacheKey("tmdb", "trending", "movie", "week")
	var cached []models.TrendingItem
	if ok, _ := s.cache.get(key, &cached); ok {
		return cached, nil
	}

	items, err := s.tmdb.trending(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch trending movies: %w", err)
	}
	if len(items) > 0 {
		if err := s.cache.set(key, items); err != nil {
			log.Printf("[catalog] failed to cache trending: %v", err)
		}
	}
	return items, nil
}

// Popular returns TMDB's popular movie list.
func (s *Service) Popular(ctx context.Context) ([]models.TrendingItem, error) {
	if !s.tmdb.isConfigured() {
		return nil, ErrNotConfigured
	}

	key := cacheKey("tmdb", "popular", "movie")
	var cached []models.TrendingItem
	if ok, _ := s.cache.get(key, &cached); ok {
		return cached, nil
	}

	items, err := s.tmdb.popular(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch popular movies: %w", err)
	}
	if len(items) > 0 {
		if err := s.cache.set(key, items); err != nil {
			log.Printf("[catalog] failed to cache popular: %v", err)
		}
	}
	return items, nil
}

// Search queries the catalog by title. Results come back from TMDB ordered by
// its own relevance, then get re-ranked by title similarity to the query so
// exact and prefix matches surface first.
func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}
	if !s.tmdb.isConfigured() {
		return nil, ErrNotConfigured
	}

	key := cacheKey("tmdb", "search", "movie", strings.ToLower(query))
	var cached []models.SearchResult
	if ok, _ := s.cache.get(key, &cached); ok {
		return cached, nil
	}

	movies, err := s.tmdb.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}

	results := rankSearchResults(query, movies)
	if len(results) > 0 {
		if err := s.cache.set(key, results); err != nil {
			log.Printf("[catalog] failed to cache search results: %v", err)
		}
	}
	return results, nil
}

// MovieDetails returns full metadata for a single movie.
func (s *Service) MovieDetails(ctx context.Context, movieID int64) (models.Movie, error) {
	if movieID <= 0 {
		return models.Movie{}, ErrMovieIDRequired
	}
	if !s.tmdb.isConfigured() {
		return models.Movie{}, ErrNotConfigured
	}

	key := cacheKey("tmdb", "movie", fmt.Sprintf("%d", movieID))
	var cached models.Movie
	if ok, _ := s.cache.get(key, &cached); ok {
		return cached, nil
	}

	movie, err := s.tmdb.movieDetails(ctx, movieID)
	if err != nil {
		return models.Movie{}, fmt.Errorf("fetch movie %d: %w", movieID, err)
	}
	if err := s.cache.set(key, movie); err != nil {
		log.Printf("[catalog] failed to cache movie %d: %v", movieID, err)
	}
	return movie, nil
}

// rankSearchResults scores each movie against the query and sorts by score
// descending. Popularity breaks score ties so well-known titles beat obscure
// ones with identical names; movie id breaks exact ties for stable output.
func rankSearchResults(query string, movies []models.Movie) []models.SearchResult {
	results := make([]models.SearchResult, len(movies))
	for idx, movie := range movies {
		results[idx] = models.SearchResult{
			Movie: movie,
			Score: similarity.TitleScore(query, movie.Title),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Movie.Popularity != results[j].Movie.Popularity {
			return results[i].Movie.Popularity > results[j].Movie.Popularity
		}
		return results[i].Movie.ID < results[j].Movie.ID
	})
	return results
}
