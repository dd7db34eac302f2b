package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}, nil
}

func newTestService(t *testing.T, transport roundTripFunc) *Service {
	t.Helper()
	client := newTMDBClient("test-key", "en-US", &http.Client{Transport: transport})
	client.minInterval = 0
	return &Service{
		tmdb:     client,
		cache:    newFileCache(t.TempDir(), 1),
		ttlHours: 1,
	}
}

func TestSearchRanksExactMatchFirst(t *testing.T) {
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/3/search/movie" {
			t.Fatalf("unexpected request path: %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("query"); got != "dune" {
			t.Fatalf("expected query 'dune', got %q", got)
		}
		return jsonResponse(http.StatusOK, `{"results":[
			{"id":2,"title":"Dune: Part Two","popularity":90.0},
			{"id":1,"title":"Dune","popularity":80.0},
			{"id":3,"title":"Duncan","popularity":10.0}
		]}`)
	})

	results, err := svc.Search(context.Background(), "dune")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Movie.ID != 1 {
		t.Fatalf("expected exact match first, got movie %d", results[0].Movie.ID)
	}
	if results[0].Score != 1.0 {
		t.Fatalf("expected exact match score 1.0, got %.2f", results[0].Score)
	}
	if results[1].Movie.ID != 2 {
		t.Fatalf("expected containment match second, got movie %d", results[1].Movie.ID)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected for empty query")
		return nil, nil
	})

	if _, err := svc.Search(context.Background(), "   "); !errors.Is(err, ErrQueryRequired) {
		t.Fatalf("expected ErrQueryRequired, got %v", err)
	}
}

func TestSearchUsesCacheOnSecondCall(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return jsonResponse(http.StatusOK, `{"results":[{"id":1,"title":"Dune"}]}`)
	})

	for i := 0; i < 2; i++ {
		if _, err := svc.Search(context.Background(), "Dune"); err != nil {
			t.Fatalf("Search %d failed: %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestTrendingAssignsRanks(t *testing.T) {
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/3/trending/movie/week" {
			t.Fatalf("unexpected request path: %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"results":[
			{"id":10,"title":"First","poster_path":"/p1.jpg","release_date":"2024-03-01"},
			{"id":20,"title":"Second"}
		]}`)
	})

	items, err := svc.Trending(context.Background())
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Rank != 1 || items[1].Rank != 2 {
		t.Fatalf("expected ranks 1,2 got %d,%d", items[0].Rank, items[1].Rank)
	}
	if items[0].Movie.Year != 2024 {
		t.Fatalf("expected year 2024, got %d", items[0].Movie.Year)
	}
	if items[0].Movie.PosterURL != "https://image.tmdb.org/t/p/w500/p1.jpg" {
		t.Fatalf("unexpected poster url: %s", items[0].Movie.PosterURL)
	}
}

func TestMovieDetailsRetriesOnServerError(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		attempt := calls
		mu.Unlock()
		if attempt == 1 {
			return jsonResponse(http.StatusInternalServerError, `{}`)
		}
		return jsonResponse(http.StatusOK, `{"id":603,"title":"The Matrix","imdb_id":"tt0133093","release_date":"1999-03-31"}`)
	})

	movie, err := svc.MovieDetails(context.Background(), 603)
	if err != nil {
		t.Fatalf("MovieDetails failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if movie.Title != "The Matrix" || movie.IMDBID != "tt0133093" || movie.Year != 1999 {
		t.Fatalf("unexpected movie mapping: %+v", movie)
	}
}

func TestMovieDetailsDoesNotRetryClientErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	svc := newTestService(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return jsonResponse(http.StatusNotFound, `{}`)
	})

	if _, err := svc.MovieDetails(context.Background(), 999); err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt for client error, got %d", calls)
	}
}

func TestServiceRejectsMissingAPIKey(t *testing.T) {
	svc := &Service{
		tmdb:  newTMDBClient("", "en-US", &http.Client{}),
		cache: newFileCache(t.TempDir(), 1),
	}

	if _, err := svc.Trending(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := svc.MovieDetails(context.Background(), 1); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
