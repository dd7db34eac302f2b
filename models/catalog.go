package models

// Movie carries the catalog display fields for a single movie, keyed by the
// catalog provider's integer ID.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Year        int     `json:"year,omitempty"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	BackdropURL string  `json:"backdropUrl,omitempty"`
	Language    string  `json:"language,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
	VoteAverage float64 `json:"voteAverage,omitempty"`
	IMDBID      string  `json:"imdbId,omitempty"`
}

// TrendingItem is one row of a trending or popular shelf.
type TrendingItem struct {
	Rank  int   `json:"rank"`
	Movie Movie `json:"movie"`
}

// SearchResult pairs a catalog movie with its relevance to the query.
type SearchResult struct {
	Movie Movie   `json:"movie"`
	Score float64 `json:"score"`
}
