package models

// Recommendation is one scored entry of a recommendation list. Score is the
// sum of the neighbor ratings that contributed the movie, so a movie loved by
// several neighbors outranks one loved by a single neighbor.
type Recommendation struct {
	MovieID   int64  `json:"movieId"`
	Score     int    `json:"score"`
	Title     string `json:"title,omitempty"`
	PosterURL string `json:"posterUrl,omitempty"`
}
