// Package rating implements the reputation ledger: one rating per (rater, ratee)
// pair and the aggregates derived from the ratings a user received.
package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "user-reputation-service/internal/domain/rating"
	pkgerrors "user-reputation-service/pkg/errors"
)

// MaxCommentLength bounds the free-text comment.
const MaxCommentLength = 1000

// Repository defines the rating store this package needs.
type Repository interface {
	// Insert must enforce (rater, ratee) uniqueness itself and fail with
	// ErrDuplicateRating; no existence check happens before it.
	Insert(ctx context.Context, r *domain.Rating) error
	GetByID(ctx context.Context, id int64) (*domain.Rating, error)
	DeleteOwned(ctx context.Context, id, raterID int64) (bool, error)
	Summary(ctx context.Context, rateeID int64) (domain.Summary, error)
	ListByRater(ctx context.Context, raterID int64) ([]domain.Rating, error)
	ListByRatee(ctx context.Context, rateeID int64) ([]domain.Rating, error)
}

// Observer receives ledger events, typically to feed metrics.
type Observer interface {
	RatingSubmitted(stars int)
	RatingRejected(reason string)
	RatingDeleted()
}

type noopObserver struct{}

func (noopObserver) RatingSubmitted(int)   {}
func (noopObserver) RatingRejected(string) {}
func (noopObserver) RatingDeleted()        {}

// Usecase implements the reputation ledger.
type Usecase struct {
	repo     Repository
	observer Observer
	log      *zap.Logger
	now      func() time.Time
}

// New creates a new instance of Usecase.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{
		repo:     r,
		observer: noopObserver{},
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithObserver sets the event observer and returns uc.
func (uc *Usecase) WithObserver(o Observer) *Usecase {
	if o != nil {
		uc.observer = o
	}
	return uc
}

// SubmitRating records raterID's opinion of rateeID. It fails with ErrSelfRating,
// ErrInvalidRatingValue or ErrDuplicateRating; the last one is decided by the store
// in a single insert, so two concurrent submissions cannot both succeed.
func (uc *Usecase) SubmitRating(ctx context.Context, raterID, rateeID int64, stars int, comment string) (*domain.Rating, error) {
	uc.log.Info("submitting rating", zap.Int64("rater_id", raterID), zap.Int64("ratee_id", rateeID), zap.Int("stars", stars))

	if raterID <= 0 {
		return nil, pkgerrors.ErrUnauthenticated
	}
	if rateeID <= 0 {
		return nil, pkgerrors.NewValidationError("rated_id", "invalid user id")
	}
	if raterID == rateeID {
		uc.observer.RatingRejected("self")
		return nil, pkgerrors.ErrSelfRating
	}
	if !domain.ValidStars(stars) {
		uc.observer.RatingRejected("stars")
		return nil, pkgerrors.ErrInvalidRatingValue
	}
	comment = strings.TrimSpace(comment)
	if len([]rune(comment)) > MaxCommentLength {
		return nil, pkgerrors.NewValidationError("comment", "comment is too long")
	}

	r := &domain.Rating{
		RaterID:   raterID,
		RateeID:   rateeID,
		Stars:     stars,
		Comment:   comment,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.Insert(ctx, r); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateRating) {
			uc.observer.RatingRejected("duplicate")
			uc.log.Warn("duplicate rating", zap.Int64("rater_id", raterID), zap.Int64("ratee_id", rateeID))
		} else {
			uc.log.Error("failed to insert rating", zap.Error(err))
		}
		return nil, err
	}

	uc.observer.RatingSubmitted(stars)
	return r, nil
}

// DeleteRating removes a rating. Only its rater may do so.
func (uc *Usecase) DeleteRating(ctx context.Context, ratingID, requesterID int64) error {
	uc.log.Info("deleting rating", zap.Int64("id", ratingID), zap.Int64("requester_id", requesterID))

	r, err := uc.repo.GetByID(ctx, ratingID)
	if err != nil {
		return err
	}
	if r.RaterID != requesterID {
		uc.log.Warn("rating delete refused", zap.Int64("id", ratingID), zap.Int64("requester_id", requesterID))
		return pkgerrors.NewPermissionDeniedError("only the author of a rating may delete it")
	}

	removed, err := uc.repo.DeleteOwned(ctx, ratingID, requesterID)
	if err != nil {
		return err
	}
	if !removed {
		// deleted concurrently between the read and the delete
		return pkgerrors.NewNotFoundError("rating", "rating not found")
	}

	uc.observer.RatingDeleted()
	return nil
}

// AverageRating is the mean of the stars userID received, rounded to one decimal.
// It is exactly 0.0 when nobody rated the user.
func (uc *Usecase) AverageRating(ctx context.Context, userID int64) (float64, error) {
	s, err := uc.Summary(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.Average, nil
}

// RatingCount is the number of ratings userID received.
func (uc *Usecase) RatingCount(ctx context.Context, userID int64) (int64, error) {
	s, err := uc.Summary(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.Count, nil
}

// Summary returns the rounded average and the count in one storage round trip.
func (uc *Usecase) Summary(ctx context.Context, userID int64) (domain.Summary, error) {
	s, err := uc.repo.Summary(ctx, userID)
	if err != nil {
		uc.log.Error("failed to aggregate ratings", zap.Int64("user_id", userID), zap.Error(err))
		return domain.Summary{}, err
	}
	if s.Count == 0 {
		return domain.Summary{}, nil
	}
	s.Average = domain.RoundAverage(s.Average)
	return s, nil
}

// RatingsGiven returns every rating userID gave, newest first.
func (uc *Usecase) RatingsGiven(ctx context.Context, userID int64) ([]domain.Rating, error) {
	return uc.repo.ListByRater(ctx, userID)
}

// RatingsReceived returns every rating userID received, newest first.
func (uc *Usecase) RatingsReceived(ctx context.Context, userID int64) ([]domain.Rating, error) {
	return uc.repo.ListByRatee(ctx, userID)
}
