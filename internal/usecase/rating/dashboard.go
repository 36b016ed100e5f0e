package rating

import (
	"context"

	"golang.org/x/sync/errgroup"

	domain "user-reputation-service/internal/domain/rating"
)

// DashboardWindow is how many recent ratings a dashboard shows on each side.
const DashboardWindow = 5

// Dashboard is the reputation overview of one user.
type Dashboard struct {
	Summary        domain.Summary
	GivenCount     int
	RecentGiven    []domain.Rating
	RecentReceived []domain.Rating
}

// Dashboard gathers the summary and both rating sequences concurrently and keeps the
// newest window entries of each.
func (uc *Usecase) Dashboard(ctx context.Context, userID int64, window int) (*Dashboard, error) {
	if window <= 0 {
		window = DashboardWindow
	}

	var (
		d        Dashboard
		given    []domain.Rating
		received []domain.Rating
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := uc.Summary(gctx, userID)
		d.Summary = s
		return err
	})
	g.Go(func() error {
		var err error
		given, err = uc.RatingsGiven(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		received, err = uc.RatingsReceived(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.GivenCount = len(given)
	d.RecentGiven = head(given, window)
	d.RecentReceived = head(received, window)
	return &d, nil
}

func head(rs []domain.Rating, n int) []domain.Rating {
	if len(rs) > n {
		return rs[:n]
	}
	return rs
}
