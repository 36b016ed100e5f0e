package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-reputation-service/internal/domain/rating"
	pkgerrors "user-reputation-service/pkg/errors"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Insert(ctx context.Context, r *domain.Rating) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil {
		r.ID = 77
	}
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.Rating, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rating), args.Error(1)
}

func (m *MockRepository) DeleteOwned(ctx context.Context, id, raterID int64) (bool, error) {
	args := m.Called(ctx, id, raterID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Summary(ctx context.Context, rateeID int64) (domain.Summary, error) {
	args := m.Called(ctx, rateeID)
	return args.Get(0).(domain.Summary), args.Error(1)
}

func (m *MockRepository) ListByRater(ctx context.Context, raterID int64) ([]domain.Rating, error) {
	args := m.Called(ctx, raterID)
	return args.Get(0).([]domain.Rating), args.Error(1)
}

func (m *MockRepository) ListByRatee(ctx context.Context, rateeID int64) ([]domain.Rating, error) {
	args := m.Called(ctx, rateeID)
	return args.Get(0).([]domain.Rating), args.Error(1)
}

type countingObserver struct {
	submitted []int
	rejected  []string
	deleted   int
}

func (o *countingObserver) RatingSubmitted(stars int)    { o.submitted = append(o.submitted, stars) }
func (o *countingObserver) RatingRejected(reason string) { o.rejected = append(o.rejected, reason) }
func (o *countingObserver) RatingDeleted()               { o.deleted++ }

func setupTestUsecase(t *testing.T) (*Usecase, *MockRepository, *countingObserver) {
	repo := new(MockRepository)
	obs := &countingObserver{}
	uc := New(repo, zaptest.NewLogger(t)).WithObserver(obs)
	uc.now = func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC) }
	return uc, repo, obs
}

func TestSubmitRating_Success(t *testing.T) {
	uc, repo, obs := setupTestUsecase(t)
	ctx := context.Background()
	repo.On("Insert", ctx, mock.MatchedBy(func(r *domain.Rating) bool {
		return r.RaterID == 1 && r.RateeID == 2 && r.Stars == 5 && r.Comment == "reliable seller" &&
			r.CreatedAt.Equal(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))
	})).Return(nil)

	r, err := uc.SubmitRating(ctx, 1, 2, 5, "  reliable seller ")
	require.NoError(t, err)
	assert.Equal(t, int64(77), r.ID)
	assert.Equal(t, []int{5}, obs.submitted)
}

func TestSubmitRating_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		rater   int64
		ratee   int64
		stars   int
		wantErr error
	}{
		{"self rating", 5, 5, 3, pkgerrors.ErrSelfRating},
		{"zero stars", 1, 2, 0, pkgerrors.ErrInvalidRatingValue},
		{"six stars", 1, 2, 6, pkgerrors.ErrInvalidRatingValue},
		{"negative stars", 1, 2, -1, pkgerrors.ErrInvalidRatingValue},
		{"anonymous rater", 0, 2, 3, pkgerrors.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo, _ := setupTestUsecase(t)

			_, err := uc.SubmitRating(context.Background(), tt.rater, tt.ratee, tt.stars, "")
			assert.ErrorIs(t, err, tt.wantErr)
			repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitRating_DuplicateFromStore(t *testing.T) {
	uc, repo, obs := setupTestUsecase(t)
	ctx := context.Background()
	repo.On("Insert", ctx, mock.Anything).Return(pkgerrors.ErrDuplicateRating)

	_, err := uc.SubmitRating(ctx, 1, 2, 5, "")
	assert.True(t, errors.Is(err, pkgerrors.ErrDuplicateRating))
	assert.Equal(t, []string{"duplicate"}, obs.rejected)
}

func TestSubmitRating_StorageFailurePassesThrough(t *testing.T) {
	uc, repo, _ := setupTestUsecase(t)
	ctx := context.Background()
	cause := errors.New("connection reset")
	repo.On("Insert", ctx, mock.Anything).Return(pkgerrors.NewStorageError("insert rating", cause))

	_, err := uc.SubmitRating(ctx, 1, 2, 5, "")
	assert.True(t, pkgerrors.IsStorageFailure(err))
	assert.ErrorIs(t, err, cause)
}

func TestDeleteRating(t *testing.T) {
	uc, repo, obs := setupTestUsecase(t)
	ctx := context.Background()
	repo.On("GetByID", ctx, int64(7)).Return(&domain.Rating{ID: 7, RaterID: 1, RateeID: 2, Stars: 4}, nil)
	repo.On("DeleteOwned", ctx, int64(7), int64(1)).Return(true, nil)

	err := uc.DeleteRating(ctx, 7, 2)
	assert.True(t, pkgerrors.IsPermissionDenied(err), "the ratee may not delete it")

	require.NoError(t, uc.DeleteRating(ctx, 7, 1))
	assert.Equal(t, 1, obs.deleted)
}

func TestDeleteRating_Missing(t *testing.T) {
	uc, repo, _ := setupTestUsecase(t)
	ctx := context.Background()
	repo.On("GetByID", ctx, int64(8)).Return(nil, pkgerrors.NewNotFoundError("rating", "rating not found"))
	repo.On("GetByID", ctx, int64(9)).Return(&domain.Rating{ID: 9, RaterID: 1}, nil)
	repo.On("DeleteOwned", ctx, int64(9), int64(1)).Return(false, nil)

	assert.True(t, pkgerrors.IsNotFound(uc.DeleteRating(ctx, 8, 1)))
	assert.True(t, pkgerrors.IsNotFound(uc.DeleteRating(ctx, 9, 1)))
}

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name     string
		summary  domain.Summary
		expected float64
	}{
		{"no ratings is exactly zero", domain.Summary{}, 0.0},
		{"rounded to one decimal", domain.Summary{Average: 13.0 / 3.0, Count: 3}, 4.3},
		{"half rounds up", domain.Summary{Average: 4.25, Count: 4}, 4.3},
		{"whole", domain.Summary{Average: 5, Count: 1}, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo, _ := setupTestUsecase(t)
			ctx := context.Background()
			repo.On("Summary", ctx, int64(2)).Return(tt.summary, nil)

			avg, err := uc.AverageRating(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, avg)

			count, err := uc.RatingCount(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.summary.Count, count)
		})
	}
}

func TestDashboard_TruncatesToWindow(t *testing.T) {
	uc, repo, _ := setupTestUsecase(t)
	ctx := context.Background()

	given := make([]domain.Rating, 7)
	for i := range given {
		given[i] = domain.Rating{ID: int64(i + 1)}
	}
	repo.On("Summary", mock.Anything, int64(1)).Return(domain.Summary{Average: 3.66, Count: 3}, nil)
	repo.On("ListByRater", mock.Anything, int64(1)).Return(given, nil)
	repo.On("ListByRatee", mock.Anything, int64(1)).Return([]domain.Rating{{ID: 20}}, nil)

	d, err := uc.Dashboard(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.7, d.Summary.Average)
	assert.Equal(t, 7, d.GivenCount)
	assert.Len(t, d.RecentGiven, DashboardWindow)
	assert.Equal(t, int64(1), d.RecentGiven[0].ID)
	assert.Len(t, d.RecentReceived, 1)
}

func TestDashboard_PropagatesErrors(t *testing.T) {
	uc, repo, _ := setupTestUsecase(t)
	boom := pkgerrors.NewStorageError("list ratings", errors.New("boom"))
	repo.On("Summary", mock.Anything, int64(1)).Return(domain.Summary{}, nil)
	repo.On("ListByRater", mock.Anything, int64(1)).Return([]domain.Rating(nil), boom)
	repo.On("ListByRatee", mock.Anything, int64(1)).Return([]domain.Rating{}, nil)

	_, err := uc.Dashboard(context.Background(), 1, 5)
	assert.ErrorIs(t, err, boom)
}
