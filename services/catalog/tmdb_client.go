package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"cinelog/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// Optimized image sizes instead of "original": posters render on cards,
	// backdrops on 1080p detail screens.
	tmdbPosterSize   = "w500"
	tmdbBackdropSize = "w1280"
)

var errAPIKeyMissing = errors.New("tmdb api key not configured")

// errStatus marks an HTTP status worth retrying (429 or 5xx).
type errStatus struct {
	status string
}

func (e *errStatus) Error() string { return fmt.Sprintf("tmdb request failed: %s", e.status) }

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs an HTTP GET with rate limiting; 429s and server errors are
// retried with exponential backoff, client errors fail immediately.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	if !c.isConfigured() {
		return errAPIKeyMissing
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	q := req.URL.Query()
	for key, values := range query {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	q.Set("api_key", c.apiKey)
	if lang := strings.TrimSpace(c.language); lang != "" {
		q.Set("language", normalizeLanguage(lang))
	} else {
		q.Set("language", "en-US")
	}
	req.URL.RawQuery = q.Encode()

	return retry.Do(
		func() error {
			c.throttle()

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return &errStatus{status: resp.Status}
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			return json.NewDecoder(resp.Body).Decode(v)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			var se *errStatus
			return errors.As(err, &se) || isTransport(err)
		}),
		retry.LastErrorOnly(true),
	)
}

func isTransport(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue)
}

func (c *tmdbClient) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
}

type tmdbMovie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	Language     string  `json:"original_language"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	ReleaseDate  string  `json:"release_date"`
	IMDBID       string  `json:"imdb_id"`
}

type tmdbMovieListResponse struct {
	Results []tmdbMovie `json:"results"`
}

func (c *tmdbClient) trending(ctx context.Context) ([]models.TrendingItem, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, "trending", "movie", "week")
	if err != nil {
		return nil, err
	}

	var payload tmdbMovieListResponse
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	items := make([]models.TrendingItem, len(payload.Results))
	for idx, r := range payload.Results {
		items[idx] = models.TrendingItem{Rank: idx + 1, Movie: mapTMDBMovie(r)}
	}
	return items, nil
}

func (c *tmdbClient) popular(ctx context.Context) ([]models.TrendingItem, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, "movie", "popular")
	if err != nil {
		return nil, err
	}

	var payload tmdbMovieListResponse
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	items := make([]models.TrendingItem, len(payload.Results))
	for idx, r := range payload.Results {
		items[idx] = models.TrendingItem{Rank: idx + 1, Movie: mapTMDBMovie(r)}
	}
	return items, nil
}

func (c *tmdbClient) search(ctx context.Context, query string) ([]models.Movie, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, "search", "movie")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")

	var payload tmdbMovieListResponse
	if err := c.doGET(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}

	movies := make([]models.Movie, len(payload.Results))
	for idx, r := range payload.Results {
		movies[idx] = mapTMDBMovie(r)
	}
	return movies, nil
}

func (c *tmdbClient) movieDetails(ctx context.Context, movieID int64) (models.Movie, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, "movie", strconv.FormatInt(movieID, 10))
	if err != nil {
		return models.Movie{}, err
	}

	var payload tmdbMovie
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return models.Movie{}, err
	}
	return mapTMDBMovie(payload), nil
}

func mapTMDBMovie(r tmdbMovie) models.Movie {
	movie := models.Movie{
		ID:          r.ID,
		Title:       r.Title,
		Overview:    r.Overview,
		Language:    r.Language,
		ReleaseDate: r.ReleaseDate,
		Popularity:  r.Popularity,
		VoteAverage: r.VoteAverage,
		IMDBID:      r.IMDBID,
	}
	if year := parseTMDBYear(r.ReleaseDate); year != 0 {
		movie.Year = year
	}
	movie.PosterURL = buildTMDBImage(r.PosterPath, tmdbPosterSize)
	movie.BackdropURL = buildTMDBImage(r.BackdropPath, tmdbBackdropSize)
	return movie
}

func parseTMDBYear(date string) int {
	if date == "" {
		return 0
	}
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Year()
	}
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			return y
		}
	}
	return 0
}

func buildTMDBImage(imagePath, size string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	fullPath := path.Join(size, strings.TrimPrefix(trimmed, "/"))
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, fullPath)
}

func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(lang, "_", "-")
	if len(lang) == 2 {
		return strings.ToLower(lang) + "-US"
	}
	if len(lang) >= 5 {
		return strings.ToLower(lang[:2]) + "-" + strings.ToUpper(lang[3:])
	}
	return "en-US"
}
