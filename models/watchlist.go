package models

import "time"

// WatchlistItem represents a movie the user saved to watch later. Membership
// is a set keyed by movie ID; marking the movie watched removes the entry.
type WatchlistItem struct {
	MovieID     int64     `json:"movieId"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview,omitempty"`
	Year        int       `json:"year,omitempty"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	BackdropURL string    `json:"backdropUrl,omitempty"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
}

// WatchlistUpsert captures data required to insert or refresh a watchlist item.
type WatchlistUpsert struct {
	MovieID     int64  `json:"movieId"`
	Title       string `json:"title"`
	Overview    string `json:"overview,omitempty"`
	Year        int    `json:"year,omitempty"`
	PosterURL   string `json:"posterUrl,omitempty"`
	BackdropURL string `json:"backdropUrl,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}
