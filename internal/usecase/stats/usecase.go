// Package stats implements the monthly statistics aggregator behind the admin dashboard.
package stats

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"user-reputation-service/internal/domain/role"
	domain "user-reputation-service/internal/domain/stats"
	"user-reputation-service/internal/domain/user"
	pkgerrors "user-reputation-service/pkg/errors"
)

// DefaultEstimateWindow is how many complete months feed the next-month estimate.
const DefaultEstimateWindow = 3

// Repository runs the dialect-dependent month aggregations.
type Repository interface {
	RegistrationsByMonth(ctx context.Context, year int) ([]domain.MonthCount, error)
	ActivesByMonth(ctx context.Context, year int) ([]domain.MonthCount, error)
}

// Counter summarises the user population.
type Counter interface {
	Counts(ctx context.Context) (user.Counts, error)
}

// Observer receives timing of each aggregation, typically to feed metrics.
type Observer interface {
	StatsComputed(kind string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) StatsComputed(string, time.Duration) {}

// Usecase implements the statistics aggregator.
type Usecase struct {
	repo     Repository
	counter  Counter
	window   int
	observer Observer
	log      *zap.Logger
	now      func() time.Time
}

// New creates a new instance of Usecase. A window below 1 uses DefaultEstimateWindow.
func New(r Repository, c Counter, window int, log *zap.Logger) *Usecase {
	if window < 1 {
		window = DefaultEstimateWindow
	}
	return &Usecase{
		repo:     r,
		counter:  c,
		window:   window,
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

// MonthlyStats returns registrations and actives for all twelve months of year.
// Months without matching rows are zero.
func (uc *Usecase) MonthlyStats(ctx context.Context, year int) (*domain.Monthly, error) {
	if year < 1 || year > 9999 {
		return nil, pkgerrors.NewValidationError("year", "year must be between 1 and 9999")
	}
	defer uc.observe("monthly", time.Now())

	var registrations, actives []domain.MonthCount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		registrations, err = uc.repo.RegistrationsByMonth(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		actives, err = uc.repo.ActivesByMonth(gctx, year)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.log.Error("failed to compute monthly stats", zap.Int("year", year), zap.Error(err))
		return nil, err
	}

	return &domain.Monthly{
		Year:          year,
		Registrations: domain.Fill(registrations),
		Actives:       domain.Fill(actives),
	}, nil
}

// GeneralStats returns the population summary. Clients are every user who is not an admin.
func (uc *Usecase) GeneralStats(ctx context.Context) (*domain.General, error) {
	defer uc.observe("general", time.Now())

	c, err := uc.counter.Counts(ctx)
	if err != nil {
		uc.log.Error("failed to compute general stats", zap.Error(err))
		return nil, err
	}
	return &domain.General{
		Total:   c.Total,
		Active:  c.Active,
		Blocked: c.Blocked,
		Admins:  c.Admins,
		Clients: c.Total - c.Admins,
	}, nil
}

// NextMonthEstimate projects registrations for the month after the current one as the
// rounded mean of the last window complete months, crossing year boundaries.
func (uc *Usecase) NextMonthEstimate(ctx context.Context) (*domain.Estimate, error) {
	defer uc.observe("estimate", time.Now())

	now := uc.now()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	target := current.AddDate(0, 1, 0)

	months := make([]time.Time, 0, uc.window)
	for i := uc.window; i >= 1; i-- {
		months = append(months, current.AddDate(0, -i, 0))
	}

	var (
		mu     sync.Mutex
		byYear = make(map[int][12]int64)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, year := range distinctYears(months) {
		g.Go(func() error {
			rows, err := uc.repo.RegistrationsByMonth(gctx, year)
			if err != nil {
				return err
			}
			mu.Lock()
			byYear[year] = domain.Fill(rows)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.log.Error("failed to compute estimate", zap.Error(err))
		return nil, err
	}

	basis := make([]int64, len(months))
	for i, m := range months {
		basis[i] = byYear[m.Year()][m.Month()-1]
	}

	return &domain.Estimate{
		Year:  target.Year(),
		Month: target.Month(),
		Basis: basis,
		Value: EstimateNext(basis),
	}, nil
}

// EstimateNext is the rounded arithmetic mean of series, or 0 for an empty series.
func EstimateNext(series []int64) int64 {
	if len(series) == 0 {
		return 0
	}
	var sum int64
	for _, v := range series {
		sum += v
	}
	return int64(math.Round(float64(sum) / float64(len(series))))
}

// AdminDashboard is everything the admin landing page shows.
type AdminDashboard struct {
	Monthly  *domain.Monthly
	General  *domain.General
	Estimate *domain.Estimate
}

// Dashboard computes the three aggregations concurrently for an administrator.
func (uc *Usecase) Dashboard(ctx context.Context, requester *user.User, year int) (*AdminDashboard, error) {
	if requester == nil {
		return nil, pkgerrors.ErrUnauthenticated
	}
	if err := role.Authorize(requester.Roles, role.ActionStats, 0); err != nil {
		return nil, err
	}
	if year == 0 {
		year = uc.now().Year()
	}

	var d AdminDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Monthly, err = uc.MonthlyStats(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		d.General, err = uc.GeneralStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Estimate, err = uc.NextMonthEstimate(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (uc *Usecase) observe(kind string, started time.Time) {
	uc.observer.StatsComputed(kind, time.Since(started))
}

func distinctYears(months []time.Time) []int {
	var years []int
	for _, m := range months {
		if len(years) == 0 || years[len(years)-1] != m.Year() {
			years = append(years, m.Year())
		}
	}
	return years
}
