package gormdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-reputation-service/internal/domain/rating"
	pkgerrors "user-reputation-service/pkg/errors"
)

func setupRatingRepo(t *testing.T) (*RatingRepo, *UserRepo) {
	db := setupTestDB(t)
	return NewRatingRepo(db, zaptest.NewLogger(t)), newTestUserRepo(t, db)
}

func TestRatingRepo_Insert(t *testing.T) {
	ratings, users := setupRatingRepo(t)
	ctx := context.Background()
	rater := seedUser(t, users, "rater@example.com", "Rater", 0, time.Now().UTC())
	ratee := seedUser(t, users, "ratee@example.com", "Ratee", 0, time.Now().UTC())

	rt := &rating.Rating{RaterID: rater, RateeID: ratee, Stars: 5, Comment: "great"}
	require.NoError(t, ratings.Insert(ctx, rt))
	assert.NotZero(t, rt.ID)
	assert.Equal(t, "Rater", rt.RaterName)
	assert.Equal(t, "Ratee", rt.RateeName)

	got, err := ratings.GetByID(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stars)
	assert.Equal(t, "great", got.Comment)
	assert.Equal(t, "Rater", got.RaterName)

	err = ratings.Insert(ctx, &rating.Rating{RaterID: rater, RateeID: ratee, Stars: 5})
	assert.True(t, errors.Is(err, pkgerrors.ErrDuplicateRating))

	summary, err := ratings.Summary(ctx, ratee)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Count)
}

func TestRatingRepo_Insert_ConcurrentDuplicates(t *testing.T) {
	ratings, users := setupRatingRepo(t)
	rater := seedUser(t, users, "rater@example.com", "Rater", 0, time.Now().UTC())
	ratee := seedUser(t, users, "ratee@example.com", "Ratee", 0, time.Now().UTC())

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ratings.Insert(context.Background(), &rating.Rating{RaterID: rater, RateeID: ratee, Stars: 3})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, pkgerrors.ErrDuplicateRating):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)
}

func TestRatingRepo_Insert_UnknownUser(t *testing.T) {
	ratings, users := setupRatingRepo(t)
	rater := seedUser(t, users, "rater@example.com", "Rater", 0, time.Now().UTC())

	err := ratings.Insert(context.Background(), &rating.Rating{RaterID: rater, RateeID: 404, Stars: 3})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRatingRepo_Summary_NoRatings(t *testing.T) {
	ratings, users := setupRatingRepo(t)
	ratee := seedUser(t, users, "ratee@example.com", "Ratee", 0, time.Now().UTC())

	summary, err := ratings.Summary(context.Background(), ratee)
	require.NoError(t, err)
	assert.Equal(t, rating.Summary{}, summary)
}

func TestRatingRepo_Summary_Mean(t *testing.T) {
	ratings, users := setupRatingRepo(t)
	ctx := context.Background()
	ratee := seedUser(t, users, "ratee@example.com", "Ratee", 0, time.Now().UTC())
	for i, stars := range []int{5, 4, 4} {
		rater := seedUser(t, users, string(rune('a'+i))+"@example.com", "Rater", 0, time.Now().UTC())
		require.NoError(t, ratings.Insert(ctx, &rating.Rating{RaterID: rater, RateeID: ratee, Stars: stars}))
	}

	summary, err := ratings.Summary(ctx, ratee)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Count)
	assert.InDelta(t, 13.0/3.0, summary.Average, 1e-9)
}

func TestRatingRepo_Lists_NewestFirst(t *testing.T) {
	ratings, users := setupRatingRepo(t)
	ctx := context.Background()
	me := seedUser(t, users, "me@example.com", "Me", 0, time.Now().UTC())
	a := seedUser(t, users, "a@example.com", "Anna", 0, time.Now().UTC())
	b := seedUser(t, users, "b@example.com", "Badr", 0, time.Now().UTC())

	require.NoError(t, ratings.Insert(ctx, &rating.Rating{RaterID: me, RateeID: a, Stars: 4, CreatedAt: date(2024, time.May, 1)}))
	require.NoError(t, ratings.Insert(ctx, &rating.Rating{RaterID: me, RateeID: b, Stars: 2, CreatedAt: date(2024, time.May, 3)}))
	require.NoError(t, ratings.Insert(ctx, &rating.Rating{RaterID: a, RateeID: me, Stars: 5, CreatedAt: date(2024, time.May, 2)}))

	given, err := ratings.ListByRater(ctx, me)
	require.NoError(t, err)
	require.Len(t, given, 2)
	assert.Equal(t, b, given[0].RateeID)
	assert.Equal(t, "Badr", given[0].RateeName)
	assert.Equal(t, a, given[1].RateeID)

	received, err := ratings.ListByRatee(ctx, me)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "Anna", received[0].RaterName)

	rated, err := ratings.RatedIDs(ctx, me)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a, b}, rated)
}

func TestRatingRepo_DeleteOwned(t *testing.T) {
	ratings, users := setupRatingRepo(t)
	ctx := context.Background()
	rater := seedUser(t, users, "rater@example.com", "Rater", 0, time.Now().UTC())
	ratee := seedUser(t, users, "ratee@example.com", "Ratee", 0, time.Now().UTC())
	rt := &rating.Rating{RaterID: rater, RateeID: ratee, Stars: 1}
	require.NoError(t, ratings.Insert(ctx, rt))

	removed, err := ratings.DeleteOwned(ctx, rt.ID, ratee)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = ratings.DeleteOwned(ctx, rt.ID, rater)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = ratings.GetByID(ctx, rt.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
}
