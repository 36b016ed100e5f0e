package gormdb

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-reputation-service/internal/domain/stats"
	pkgerrors "user-reputation-service/pkg/errors"
)

// StatsRepo runs the dialect-dependent monthly aggregations.
type StatsRepo struct {
	db      *gorm.DB
	dialect Dialect
	log     *zap.Logger
}

// NewStatsRepo creates a new instance of StatsRepo.
func NewStatsRepo(db *gorm.DB, dialect Dialect, log *zap.Logger) *StatsRepo {
	return &StatsRepo{db: db, dialect: dialect, log: log}
}

type monthRow struct {
	MonthNum int
	Total    int64
}

// RegistrationsByMonth counts users created in each month of year. Months without
// registrations are absent from the result.
func (r *StatsRepo) RegistrationsByMonth(ctx context.Context, year int) ([]stats.MonthCount, error) {
	q := r.db.WithContext(ctx).Model(&UserSchema{}).
		Where(r.dialect.Year("created_at")+" = ?", r.dialect.YearArg(year))
	return r.byMonth(q, "created_at", "registrations", year)
}

// ActivesByMonth counts non-blocked users whose last login falls in each month of year.
func (r *StatsRepo) ActivesByMonth(ctx context.Context, year int) ([]stats.MonthCount, error) {
	q := r.db.WithContext(ctx).Model(&UserSchema{}).
		Where("last_login_at IS NOT NULL").
		Where("is_blocked = ?", false).
		Where(r.dialect.Year("last_login_at")+" = ?", r.dialect.YearArg(year))
	return r.byMonth(q, "last_login_at", "actives", year)
}

func (r *StatsRepo) byMonth(q *gorm.DB, column, series string, year int) ([]stats.MonthCount, error) {
	var rows []monthRow
	err := q.Select(r.dialect.Month(column) + " AS month_num, COUNT(id) AS total").
		Group("month_num").
		Order("month_num").
		Scan(&rows).Error
	if err != nil {
		r.log.Error("failed to aggregate by month", zap.Error(err),
			zap.String("series", series), zap.Int("year", year), zap.String("dialect", r.dialect.Name()))
		return nil, pkgerrors.NewStorageError("aggregate "+series, err)
	}

	out := make([]stats.MonthCount, len(rows))
	for i, row := range rows {
		out[i] = stats.MonthCount{Month: row.MonthNum, Total: row.Total}
	}
	return out, nil
}
