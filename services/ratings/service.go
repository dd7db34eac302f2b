package ratings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cinelog/models"
)

var (
	ErrUserIDRequired   = errors.New("user id is required")
	ErrMovieIDRequired  = errors.New("movie id is required")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrNotFound         = errors.New("rating not found")
)

// WatchlistRemover drops a movie from a user's watchlist when it transitions
// to watched.
type WatchlistRemover interface {
	RemoveIfPresent(userID string, movieID int64) error
}

// Service persists per-user movie ratings in sqlite. The single ratings
// relation is also the global rating index: the movie-keyed queries the
// recommendation engine depends on read the same rows the per-user store
// writes, so the two views can never diverge.
type Service struct {
	db        *sql.DB
	watchlist WatchlistRemover
}

// NewService creates a rating store backed by the provided database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// SetWatchlist wires the watchlist store so upserts can enforce that watched
// supersedes watchlisted.
func (s *Service) SetWatchlist(w WatchlistRemover) {
	s.watchlist = w
}

// Upsert inserts or updates the rating for (userID, input.MovieID). An
// existing row keeps its original watch timestamp unless input.WatchedAt is
// set; rating and review are always replaced. Any watchlist entry for the
// same movie is removed, and a failure of that removal surfaces as the
// upsert's error.
func (s *Service) Upsert(ctx context.Context, userID string, input models.RatingUpsert) (models.WatchedMovie, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.WatchedMovie{}, ErrUserIDRequired
	}
	if input.MovieID <= 0 {
		return models.WatchedMovie{}, ErrMovieIDRequired
	}
	if input.Rating < models.RatingMin || input.Rating > models.RatingMax {
		return models.WatchedMovie{}, ErrRatingOutOfRange
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.WatchedMovie{}, fmt.Errorf("begin rating upsert: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanWatched(tx.QueryRowContext(ctx, selectQuery+` WHERE user_id = ? AND movie_id = ?`, userID, input.MovieID))
	now := time.Now().UTC()

	var record models.WatchedMovie
	switch {
	case err == nil:
		record = existing
	case errors.Is(err, sql.ErrNoRows):
		record = models.WatchedMovie{
			Rating:    models.Rating{UserID: userID, MovieID: input.MovieID, WatchedAt: now},
			CreatedAt: now,
		}
	default:
		return models.WatchedMovie{}, fmt.Errorf("load existing rating: %w", err)
	}

	record.Rating.Rating = input.Rating
	record.Review = input.Review
	record.UpdatedAt = now
	if input.WatchedAt != nil {
		record.WatchedAt = input.WatchedAt.UTC()
	}
	if strings.TrimSpace(input.Title) != "" {
		record.Title = input.Title
	}
	if strings.TrimSpace(input.PosterURL) != "" {
		record.PosterURL = input.PosterURL
	}
	if strings.TrimSpace(input.BackdropURL) != "" {
		record.BackdropURL = input.BackdropURL
	}
	if strings.TrimSpace(input.ReleaseDate) != "" {
		record.ReleaseDate = input.ReleaseDate
	}

	const upsert = `
        INSERT INTO ratings (user_id, movie_id, rating, review, title, poster_url, backdrop_url, release_date, watched_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id, movie_id) DO UPDATE SET
            rating       = excluded.rating,
            review       = excluded.review,
            title        = excluded.title,
            poster_url   = excluded.poster_url,
            backdrop_url = excluded.backdrop_url,
            release_date = excluded.release_date,
            watched_at   = excluded.watched_at,
            updated_at   = excluded.updated_at
    `
	if _, err := tx.ExecContext(ctx, upsert,
		record.UserID, record.MovieID, record.Rating.Rating, record.Review,
		record.Title, record.PosterURL, record.BackdropURL, record.ReleaseDate,
		record.WatchedAt, record.CreatedAt, record.UpdatedAt,
	); err != nil {
		return models.WatchedMovie{}, fmt.Errorf("upsert rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.WatchedMovie{}, fmt.Errorf("commit rating upsert: %w", err)
	}

	// Watched supersedes watchlisted.
	if s.watchlist != nil {
		if err := s.watchlist.RemoveIfPresent(userID, record.MovieID); err != nil {
			return models.WatchedMovie{}, fmt.Errorf("remove watchlist entry: %w", err)
		}
	}

	return record, nil
}

// ListByUser returns every watched movie for the user, most recently watched
// first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.WatchedMovie, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx, selectQuery+` WHERE user_id = ? ORDER BY watched_at DESC, movie_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var items []models.WatchedMovie
	for rows.Next() {
		record, err := scanWatched(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	return items, nil
}

// Get returns the user's rating for one movie, or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string, movieID int64) (models.WatchedMovie, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.WatchedMovie{}, ErrUserIDRequired
	}
	if movieID <= 0 {
		return models.WatchedMovie{}, ErrMovieIDRequired
	}

	record, err := scanWatched(s.db.QueryRowContext(ctx, selectQuery+` WHERE user_id = ? AND movie_id = ?`, userID, movieID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.WatchedMovie{}, ErrNotFound
	}
	if err != nil {
		return models.WatchedMovie{}, fmt.Errorf("get rating: %w", err)
	}
	return record, nil
}

// RatingsByUser returns all rating rows for one user, in unspecified order,
// with the captured display fields attached. This is one of the two read
// contracts the recommendation engine consumes.
func (s *Service) RatingsByUser(ctx context.Context, userID string) ([]models.WatchedMovie, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx, selectQuery+` WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("ratings by user: %w", err)
	}
	defer rows.Close()

	return collectWatched(rows)
}

// RatersOfMovie returns all ratings of one movie at or above minRating,
// across users. This is the movie-keyed side of the global rating index.
func (s *Service) RatersOfMovie(ctx context.Context, movieID int64, minRating int) ([]models.WatchedMovie, error) {
	if movieID <= 0 {
		return nil, ErrMovieIDRequired
	}

	rows, err := s.db.QueryContext(ctx, selectQuery+` WHERE movie_id = ? AND rating >= ?`, movieID, minRating)
	if err != nil {
		return nil, fmt.Errorf("raters of movie: %w", err)
	}
	defer rows.Close()

	return collectWatched(rows)
}

const selectQuery = `
    SELECT user_id, movie_id, rating, review, title, poster_url, backdrop_url, release_date, watched_at, created_at, updated_at
    FROM ratings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWatched(row rowScanner) (models.WatchedMovie, error) {
	var record models.WatchedMovie
	err := row.Scan(
		&record.UserID,
		&record.MovieID,
		&record.Rating.Rating,
		&record.Review,
		&record.Title,
		&record.PosterURL,
		&record.BackdropURL,
		&record.ReleaseDate,
		&record.WatchedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return models.WatchedMovie{}, err
	}
	return record, nil
}

func collectWatched(rows *sql.Rows) ([]models.WatchedMovie, error) {
	var items []models.WatchedMovie
	for rows.Next() {
		record, err := scanWatched(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating rows: %w", err)
	}
	return items, nil
}
