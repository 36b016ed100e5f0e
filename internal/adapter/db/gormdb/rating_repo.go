package gormdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user-reputation-service/internal/domain/rating"
	pkgerrors "user-reputation-service/pkg/errors"
)

// RatingRepo implements the rating store on top of GORM.
type RatingRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRatingRepo creates a new instance of RatingRepo.
func NewRatingRepo(db *gorm.DB, log *zap.Logger) *RatingRepo {
	return &RatingRepo{db: db, log: log}
}

// Insert stores a new rating. The (rater, ratee) unique index decides between two
// concurrent inserts for the same pair: the loser gets ErrDuplicateRating.
// Both users must exist; otherwise a NotFoundError is returned.
func (r *RatingRepo) Insert(ctx context.Context, rt *rating.Rating) error {
	if rt == nil {
		return errors.New("rating cannot be nil")
	}

	model := RatingSchema{
		RaterID:   rt.RaterID,
		RateeID:   rt.RateeID,
		Stars:     rt.Stars,
		CreatedAt: rt.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if rt.Comment != "" {
		comment := rt.Comment
		model.Comment = &comment
	}

	names := make(map[int64]string, 2)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parties []UserSchema
		if err := tx.Select("id", "name").Where("id IN ?", []int64{rt.RaterID, rt.RateeID}).Find(&parties).Error; err != nil {
			return pkgerrors.NewStorageError("load rating parties", err)
		}
		for _, p := range parties {
			names[p.ID] = p.Name
		}
		for _, id := range []int64{rt.RaterID, rt.RateeID} {
			if _, ok := names[id]; !ok {
				return userNotFound(id)
			}
		}

		if err := tx.Omit(clause.Associations).Create(&model).Error; err != nil {
			if isUniqueViolation(err) {
				return pkgerrors.ErrDuplicateRating
			}
			return pkgerrors.NewStorageError("insert rating", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateRating) || pkgerrors.IsNotFound(err) {
			r.log.Debug("rating rejected", zap.Error(err),
				zap.Int64("rater_id", rt.RaterID), zap.Int64("ratee_id", rt.RateeID))
		} else {
			r.log.Error("failed to insert rating", zap.Error(err),
				zap.Int64("rater_id", rt.RaterID), zap.Int64("ratee_id", rt.RateeID))
		}
		return err
	}

	rt.ID = model.ID
	rt.CreatedAt = model.CreatedAt
	rt.RaterName = names[rt.RaterID]
	rt.RateeName = names[rt.RateeID]
	r.log.Info("rating created in db", zap.Int64("id", model.ID))
	return nil
}

// GetByID retrieves a rating by id. A missing row yields a NotFoundError.
func (r *RatingRepo) GetByID(ctx context.Context, id int64) (*rating.Rating, error) {
	var model RatingSchema
	if err := r.withParties(r.db.WithContext(ctx)).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ratingNotFound(id)
		}
		r.log.Error("failed to get rating from db", zap.Error(err), zap.Int64("id", id))
		return nil, pkgerrors.NewStorageError("get rating", err)
	}

	rt := model.toDomain()
	return &rt, nil
}

// DeleteOwned removes the rating only if raterID authored it. It reports whether a row was removed.
func (r *RatingRepo) DeleteOwned(ctx context.Context, id, raterID int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND rater_id = ?", id, raterID).Delete(&RatingSchema{})
	if res.Error != nil {
		r.log.Error("failed to delete rating", zap.Error(res.Error), zap.Int64("id", id))
		return false, pkgerrors.NewStorageError("delete rating", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Summary returns the raw mean and the number of ratings received by rateeID.
// The mean is 0 when there are no ratings.
func (r *RatingRepo) Summary(ctx context.Context, rateeID int64) (rating.Summary, error) {
	var row struct {
		Average *float64
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&RatingSchema{}).
		Select("AVG(stars) AS average, COUNT(id) AS total").
		Where("ratee_id = ?", rateeID).
		Scan(&row).Error
	if err != nil {
		r.log.Error("failed to aggregate ratings", zap.Error(err), zap.Int64("ratee_id", rateeID))
		return rating.Summary{}, pkgerrors.NewStorageError("aggregate ratings", err)
	}

	s := rating.Summary{Count: row.Total}
	if row.Average != nil {
		s.Average = *row.Average
	}
	return s, nil
}

// ListByRater returns every rating given by raterID, newest first.
func (r *RatingRepo) ListByRater(ctx context.Context, raterID int64) ([]rating.Rating, error) {
	return r.list(ctx, "rater_id = ?", raterID)
}

// ListByRatee returns every rating received by rateeID, newest first.
func (r *RatingRepo) ListByRatee(ctx context.Context, rateeID int64) ([]rating.Rating, error) {
	return r.list(ctx, "ratee_id = ?", rateeID)
}

// RatedIDs returns the ids of every user raterID has already rated.
func (r *RatingRepo) RatedIDs(ctx context.Context, raterID int64) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&RatingSchema{}).Where("rater_id = ?", raterID).Pluck("ratee_id", &ids).Error; err != nil {
		r.log.Error("failed to list rated ids", zap.Error(err), zap.Int64("rater_id", raterID))
		return nil, pkgerrors.NewStorageError("list rated ids", err)
	}
	return ids, nil
}

func (r *RatingRepo) list(ctx context.Context, cond string, id int64) ([]rating.Rating, error) {
	var models []RatingSchema
	err := r.withParties(r.db.WithContext(ctx)).
		Where(cond, id).
		Order("created_at DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list ratings", zap.Error(err), zap.String("filter", cond), zap.Int64("id", id))
		return nil, pkgerrors.NewStorageError("list ratings", err)
	}

	out := make([]rating.Rating, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (r *RatingRepo) withParties(db *gorm.DB) *gorm.DB {
	names := func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }
	return db.Preload("Rater", names).Preload("Ratee", names)
}

func ratingNotFound(id int64) error {
	return pkgerrors.NewNotFoundError("rating", fmt.Sprintf("rating not found: id=%d", id))
}
