package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"cinelog/models"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrLimitInvalid   = errors.New("limit must be positive")
)

const (
	// DefaultLimit is used by callers that do not specify a result size.
	DefaultLimit = 10

	// likedThreshold is the minimum rating that carries signal: only movies
	// rated at or above it seed neighbor discovery, and only neighbor
	// ratings at or above it contribute candidates.
	likedThreshold = 4
)

// RatingIndex is the engine's sole read dependency: the global rating index,
// queryable by user and by movie.
type RatingIndex interface {
	RatingsByUser(ctx context.Context, userID string) ([]models.WatchedMovie, error)
	RatersOfMovie(ctx context.Context, movieID int64, minRating int) ([]models.WatchedMovie, error)
}

// Engine computes neighbor-based collaborative-filtering recommendations.
// It holds no state of its own beyond the index handle: every Recommend call
// recomputes from scratch and concurrent calls never interfere.
type Engine struct {
	index RatingIndex
}

// NewEngine creates an engine reading from the provided index.
func NewEngine(index RatingIndex) *Engine {
	return &Engine{index: index}
}

// Recommend returns up to limit movies liked by users with similar taste,
// highest score first. A movie's score is the sum of the >=4-star ratings
// neighbors gave it; ties order by movie id ascending. The user's own watched
// movies are never returned. An empty result is the normal cold-start
// outcome, not an error; any index failure aborts the whole call with no
// partial result.
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) ([]models.Recommendation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if limit <= 0 {
		return nil, ErrLimitInvalid
	}

	seed, err := e.index.RatingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load seed ratings: %w", err)
	}

	watched := make(map[int64]struct{}, len(seed))
	var liked []int64
	for _, r := range seed {
		watched[r.MovieID] = struct{}{}
		if r.Rating.Rating >= likedThreshold {
			liked = append(liked, r.MovieID)
		}
	}
	if len(liked) == 0 {
		return []models.Recommendation{}, nil
	}

	// Neighbor discovery: everyone who shares a liked movie at the same
	// threshold, excluding the user. The per-movie queries are independent
	// and fan out concurrently; iter.MapErr keeps results aligned with the
	// liked slice so the union below is deterministic.
	raterLists, err := iter.MapErr(liked, func(movieID *int64) ([]models.WatchedMovie, error) {
		return e.index.RatersOfMovie(ctx, *movieID, likedThreshold)
	})
	if err != nil {
		return nil, fmt.Errorf("discover neighbors: %w", err)
	}

	seen := make(map[string]struct{})
	var neighbors []string
	for _, raters := range raterLists {
		for _, r := range raters {
			if r.UserID == userID {
				continue
			}
			if _, ok := seen[r.UserID]; ok {
				continue
			}
			seen[r.UserID] = struct{}{}
			neighbors = append(neighbors, r.UserID)
		}
	}
	if len(neighbors) == 0 {
		return []models.Recommendation{}, nil
	}

	// Candidate aggregation: one query per neighbor, again fanned out, then
	// accumulated sequentially so scoring and display-field capture do not
	// race.
	neighborRatings, err := iter.MapErr(neighbors, func(neighborID *string) ([]models.WatchedMovie, error) {
		return e.index.RatingsByUser(ctx, *neighborID)
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate candidates: %w", err)
	}

	scores := make(map[int64]*models.Recommendation)
	for _, ratings := range neighborRatings {
		for _, r := range ratings {
			if r.Rating.Rating < likedThreshold {
				continue
			}
			if _, alreadyWatched := watched[r.MovieID]; alreadyWatched {
				continue
			}
			candidate, ok := scores[r.MovieID]
			if !ok {
				// Display fields come from the first contributing rating
				// and are never overwritten.
				candidate = &models.Recommendation{
					MovieID:   r.MovieID,
					Title:     r.Title,
					PosterURL: r.PosterURL,
				}
				scores[r.MovieID] = candidate
			}
			candidate.Score += r.Rating.Rating
		}
	}

	results := make([]models.Recommendation, 0, len(scores))
	for _, candidate := range scores {
		results = append(results, *candidate)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].MovieID < results[j].MovieID
		}
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
