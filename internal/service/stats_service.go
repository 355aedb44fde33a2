package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/surojit-ghosh/url-shortener/internal/model"
	"github.com/surojit-ghosh/url-shortener/internal/repository"
)

const (
	// recentClickLimit caps the recent-clicks slice in a stats response
	recentClickLimit = 50

	// topLinkLimit caps the most-clicked-links table on the dashboard
	topLinkLimit = 5

	// dashboardDays is the length of the per-day click series
	dashboardDays = 7
)

// ClickStatsStore is the read side of the click repository.
type ClickStatsStore interface {
	CountByLink(ctx context.Context, linkID uuid.UUID) (int64, error)
	RecentByLink(ctx context.Context, linkID uuid.UUID, limit int) ([]model.Click, error)
	BreakdownByLink(ctx context.Context, linkID uuid.UUID) (*repository.ClickBreakdown, error)
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error)
	DailyCountsByUser(ctx context.Context, userID string, since time.Time) (map[string]int64, error)
	TopLinksByUser(ctx context.Context, userID string, limit int) ([]model.TopLink, error)
}

// StatsService serves per-link click summaries and the per-user
// dashboard aggregate.
type StatsService struct {
	store   repository.LinkStore
	clicks  ClickStatsStore
	baseURL string
}

// NewStatsService creates a stats service
func NewStatsService(store repository.LinkStore, clicks ClickStatsStore, baseURL string) *StatsService {
	return &StatsService{store: store, clicks: clicks, baseURL: baseURL}
}

// Stats returns the click count, dimension breakdowns and recent clicks
// for a link. Expired links still report their history.
func (s *StatsService) Stats(ctx context.Context, key string) (*model.LinkStatsResponse, error) {
	link, err := s.store.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	total, err := s.clicks.CountByLink(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.clicks.BreakdownByLink(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	recent, err := s.clicks.RecentByLink(ctx, link.ID, recentClickLimit)
	if err != nil {
		return nil, err
	}

	return &model.LinkStatsResponse{
		Key:             link.Key,
		TotalClicks:     total,
		UniqueCountries: uniqueRecorded(breakdown.ByCountry),
		UniqueDevices:   uniqueRecorded(breakdown.ByDevice),
		ClicksByDate:    breakdown.ByDate,
		ClicksByCountry: breakdown.ByCountry,
		ClicksByDevice:  breakdown.ByDevice,
		Recent:          recent,
	}, nil
}

// Dashboard aggregates click activity across all of a user's links:
// headline totals, a zero-filled per-day series for the trailing week,
// and the most-clicked links.
func (s *StatsService) Dashboard(ctx context.Context, userID string) (*model.DashboardResponse, error) {
	now := time.Now().UTC()
	startOfToday := now.Truncate(24 * time.Hour)
	seriesStart := startOfToday.AddDate(0, 0, -(dashboardDays - 1))

	totalLinks, err := s.store.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalClicks, err := s.clicks.CountByUserSince(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	clicksToday, err := s.clicks.CountByUserSince(ctx, userID, startOfToday)
	if err != nil {
		return nil, err
	}
	daily, err := s.clicks.DailyCountsByUser(ctx, userID, seriesStart)
	if err != nil {
		return nil, err
	}
	topLinks, err := s.clicks.TopLinksByUser(ctx, userID, topLinkLimit)
	if err != nil {
		return nil, err
	}

	series := make([]model.DailyClicks, 0, dashboardDays)
	for i := 0; i < dashboardDays; i++ {
		day := seriesStart.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, model.DailyClicks{Date: day, Clicks: daily[day]})
	}

	var avg int64
	if totalLinks > 0 {
		avg = totalClicks / totalLinks
	}

	for i := range topLinks {
		topLinks[i].ShortURL = s.baseURL + "/" + topLinks[i].Key
	}

	return &model.DashboardResponse{
		Overview: model.DashboardOverview{
			TotalLinks:       totalLinks,
			ClicksToday:      clicksToday,
			TotalClicks:      totalClicks,
			AvgClicksPerLink: avg,
		},
		Last7Days: series,
		TopLinks:  topLinks,
	}, nil
}

// uniqueRecorded counts the distinct recorded values of a breakdown,
// excluding the bucket for clicks that carried none.
func uniqueRecorded(buckets map[string]int64) int {
	n := len(buckets)
	if _, ok := buckets["Unknown"]; ok {
		n--
	}
	return n
}
