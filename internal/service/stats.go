package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cafebar/api/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const topUsersLimit = 10

// StatsStore defines the DB methods needed for dashboard statistics.
type StatsStore interface {
	ListTopUsers(ctx context.Context, limit int32) ([]database.ListTopUsersRow, error)
	SumRevenueSince(ctx context.Context, since time.Time) (pgtype.Numeric, error)
}

// Profit is revenue of order groups touched since the start of the current
// day and week.
type Profit struct {
	Daily  decimal.Decimal
	Weekly decimal.Decimal
}

// StatsService computes simple grouped counts and sums.
type StatsService struct {
	store StatsStore
	now   func() time.Time
}

// NewStatsService creates a new StatsService.
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

// TopUsers returns the users with the most order groups.
func (s *StatsService) TopUsers(ctx context.Context) ([]database.ListTopUsersRow, error) {
	rows, err := s.store.ListTopUsers(ctx, topUsersLimit)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}
	return rows, nil
}

// Profit sums total prices of groups updated since local midnight and since
// the start of the week (Sunday). Both sums run concurrently.
func (s *StatsService) Profit(ctx context.Context) (Profit, error) {
	now := s.now()
	day := startOfDay(now)
	week := startOfWeek(now)

	var p Profit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.SumRevenueSince(gctx, day)
		if err != nil {
			return fmt.Errorf("daily revenue: %w", err)
		}
		p.Daily = NumericToDecimal(n)
		return nil
	})
	g.Go(func() error {
		n, err := s.store.SumRevenueSince(gctx, week)
		if err != nil {
			return fmt.Errorf("weekly revenue: %w", err)
		}
		p.Weekly = NumericToDecimal(n)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Profit{}, err
	}
	return p, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}
