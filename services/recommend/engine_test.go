package recommend

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinelog/models"
)

// fakeIndex is an in-memory RatingIndex seeded per test.
type fakeIndex struct {
	byUser map[string][]models.WatchedMovie

	userErr  error
	movieErr error
	calls    atomic.Int64
}

func (f *fakeIndex) RatingsByUser(_ context.Context, userID string) ([]models.WatchedMovie, error) {
	f.calls.Add(1)
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.byUser[userID], nil
}

func (f *fakeIndex) RatersOfMovie(_ context.Context, movieID int64, minRating int) ([]models.WatchedMovie, error) {
	f.calls.Add(1)
	if f.movieErr != nil {
		return nil, f.movieErr
	}
	userIDs := make([]string, 0, len(f.byUser))
	for userID := range f.byUser {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	var raters []models.WatchedMovie
	for _, userID := range userIDs {
		for _, r := range f.byUser[userID] {
			if r.MovieID == movieID && r.Rating.Rating >= minRating {
				raters = append(raters, r)
			}
		}
	}
	return raters, nil
}

func (f *fakeIndex) rate(userID string, movieID int64, rating int, title string) {
	if f.byUser == nil {
		f.byUser = make(map[string][]models.WatchedMovie)
	}
	f.byUser[userID] = append(f.byUser[userID], models.WatchedMovie{
		Rating: models.Rating{
			UserID:    userID,
			MovieID:   movieID,
			Rating:    rating,
			WatchedAt: time.Now().UTC(),
		},
		Title: title,
	})
}

func TestRecommendConcreteScenario(t *testing.T) {
	// U rated {A:5, B:3, C:4}; V and W share the liked movies; V likes D and
	// E, W likes D. Expected output: D scored 9, then E scored 4.
	idx := &fakeIndex{}
	idx.rate("U", 1, 5, "A")
	idx.rate("U", 2, 3, "B")
	idx.rate("U", 3, 4, "C")
	idx.rate("V", 1, 5, "A")
	idx.rate("V", 3, 4, "C")
	idx.rate("V", 4, 5, "D")
	idx.rate("V", 5, 4, "E")
	idx.rate("W", 1, 4, "A")
	idx.rate("W", 4, 4, "D")

	engine := NewEngine(idx)
	got, err := engine.Recommend(context.Background(), "U", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(4), got[0].MovieID)
	assert.Equal(t, 9, got[0].Score)
	assert.Equal(t, "D", got[0].Title)
	assert.Equal(t, int64(5), got[1].MovieID)
	assert.Equal(t, 4, got[1].Score)
}

func TestRecommendEmptyWhenUserRatedNothing(t *testing.T) {
	engine := NewEngine(&fakeIndex{})
	got, err := engine.Recommend(context.Background(), "U", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommendEmptyWhenNoHighRatings(t *testing.T) {
	idx := &fakeIndex{}
	idx.rate("U", 1, 3, "A")
	idx.rate("U", 2, 2, "B")
	idx.rate("V", 1, 5, "A")

	engine := NewEngine(idx)
	got, err := engine.Recommend(context.Background(), "U", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommendEmptyWhenNoNeighbors(t *testing.T) {
	idx := &fakeIndex{}
	idx.rate("U", 1, 5, "A")

	engine := NewEngine(idx)
	got, err := engine.Recommend(context.Background(), "U", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommendNeverReturnsWatchedMovies(t *testing.T) {
	idx := &fakeIndex{}
	idx.rate("U", 1, 5, "A")
	idx.rate("U", 2, 2, "B") // low rating still counts as watched
	idx.rate("V", 1, 5, "A")
	idx.rate("V", 2, 5, "B")
	idx.rate("V", 3, 5, "C")

	engine := NewEngine(idx)
	got, err := engine.Recommend(context.Background(), "U", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].MovieID)
}

func TestRecommendSelfExclusion(t *testing.T) {
	// U is technically a >=4 rater of movie 1 but must never become their
	// own neighbor; with no other raters the result is empty.
	idx := &fakeIndex{}
	idx.rate("U", 1, 5, "X")
	idx.rate("U", 2, 5, "Y")

	engine := NewEngine(idx)
	got, err := engine.Recommend(context.Background(), "U", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommendAdditiveScoring(t *testing.T) {
	idx := &fakeIndex{}
	idx.rate("U", 1, 5, "Shared")
	idx.rate("A", 1, 5, "Shared")
	idx.rate("B", 1, 4, "Shared")
	idx.rate("A", 2, 5, "M")
	idx.rate("B", 2, 4, "M")
	idx.rate("A", 3, 5, "Solo")

	engine := NewEngine(idx)
	got, err := engine.Recommend(context.Background(), "U", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// M scored 5+4=9, ranking above the single 5-star candidate.
	assert.Equal(t, int64(2), got[0].MovieID)
	assert.Equal(t, 9, got[0].Score)
	assert.Equal(t, int64(3), got[1].MovieID)
	assert.Equal(t, 5, got[1].Score)
}

func TestRecommendLimitAndOrdering(t *testing.T) {
	idx := &fakeIndex{}
	idx.rate("U", 100, 5, "Seed")
	idx.rate("V", 100, 5, "Seed")
	for movieID := int64(1); movieID <= 8; movieID++ {
		idx.rate("V", movieID, 4+int(movieID%2), "")
	}

	engine := NewEngine(idx)
	got, err := engine.Recommend(context.Background(), "U", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score, "scores must be non-increasing")
		if got[i-1].Score == got[i].Score {
			assert.Less(t, got[i-1].MovieID, got[i].MovieID, "ties order by movie id")
		}
	}
}

func TestRecommendIdempotent(t *testing.T) {
	idx := &fakeIndex{}
	idx.rate("U", 1, 5, "A")
	idx.rate("V", 1, 5, "A")
	idx.rate("V", 2, 4, "B")
	idx.rate("W", 1, 4, "A")
	idx.rate("W", 2, 5, "B")
	idx.rate("W", 3, 4, "C")

	engine := NewEngine(idx)
	first, err := engine.Recommend(context.Background(), "U", 10)
	require.NoError(t, err)
	second, err := engine.Recommend(context.Background(), "U", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecommendRejectsInvalidInputBeforeIO(t *testing.T) {
	idx := &fakeIndex{}
	engine := NewEngine(idx)

	_, err := engine.Recommend(context.Background(), "", 10)
	require.ErrorIs(t, err, ErrUserIDRequired)

	_, err = engine.Recommend(context.Background(), "U", 0)
	require.ErrorIs(t, err, ErrLimitInvalid)

	_, err = engine.Recommend(context.Background(), "U", -3)
	require.ErrorIs(t, err, ErrLimitInvalid)

	assert.Zero(t, idx.calls.Load(), "invalid input must be rejected before any index query")
}

func TestRecommendPropagatesIndexErrors(t *testing.T) {
	storeDown := errors.New("store unavailable")

	idx := &fakeIndex{userErr: storeDown}
	_, err := NewEngine(idx).Recommend(context.Background(), "U", 10)
	require.ErrorIs(t, err, storeDown)

	idx = &fakeIndex{movieErr: storeDown}
	idx.rate("U", 1, 5, "A")
	_, err = NewEngine(idx).Recommend(context.Background(), "U", 10)
	require.ErrorIs(t, err, storeDown, "a failing neighbor query must fail the whole call, not shrink the result")
}

func TestRecommendDisplayFieldsFromFirstContribution(t *testing.T) {
	idx := &fakeIndex{}
	idx.rate("U", 1, 5, "Seed")
	idx.rate("V", 1, 5, "Seed")
	idx.rate("V", 2, 4, "First Title")
	idx.rate("W", 1, 5, "Seed")
	idx.rate("W", 2, 5, "Second Title")

	engine := NewEngine(idx)
	got, err := engine.Recommend(context.Background(), "U", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Score)
	assert.Equal(t, "First Title", got[0].Title, "display fields are captured once and not overwritten")
}
