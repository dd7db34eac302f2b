package models

import "time"

const (
	// RatingMin and RatingMax bound a persisted rating. A rating of 0 means
	// "no rating yet" and must never reach the store.
	RatingMin = 1
	RatingMax = 5
)

// Rating is one user's judgment of one movie. At most one Rating exists per
// (UserID, MovieID) pair; later ratings overwrite, never append.
type Rating struct {
	UserID    string    `json:"userId"`
	MovieID   int64     `json:"movieId"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review,omitempty"`
	WatchedAt time.Time `json:"watchedAt"`
}

// WatchedMovie is a Rating joined with the catalog display fields captured
// when the user marked the movie watched.
type WatchedMovie struct {
	Rating
	Title       string    `json:"title"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	BackdropURL string    `json:"backdropUrl,omitempty"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RatingUpsert captures the payload required to insert or update a rating.
// WatchedAt is optional: when nil the original watch timestamp is preserved
// on update and the current time is used on insert.
type RatingUpsert struct {
	MovieID     int64      `json:"movieId"`
	Rating      int        `json:"rating"`
	Review      string     `json:"review,omitempty"`
	WatchedAt   *time.Time `json:"watchedAt,omitempty"`
	Title       string     `json:"title,omitempty"`
	PosterURL   string     `json:"posterUrl,omitempty"`
	BackdropURL string     `json:"backdropUrl,omitempty"`
	ReleaseDate string     `json:"releaseDate,omitempty"`
}
