package model

import (
	"time"

	"github.com/google/uuid"
)

// Click is an immutable record of one resolved redirect. Rows are
// appended by the analytics recorder and never updated or deleted here.
type Click struct {
	ID          int64     `json:"id"`
	LinkID      uuid.UUID `json:"link_id"`
	TargetURL   string    `json:"target_url"`
	ClientIP    *string   `json:"client_ip,omitempty"`
	UserAgent   *string   `json:"user_agent,omitempty"`
	CountryCode *string   `json:"country_code,omitempty"`
	DeviceType  *string   `json:"device_type,omitempty"`
	Referer     *string   `json:"referer,omitempty"`
	ClickedAt   time.Time `json:"clicked_at"`
}

// LinkStatsResponse summarises recorded clicks for one link.
// Breakdown keys collapse missing country/device values to "Unknown";
// the unique counts only consider recorded values.
type LinkStatsResponse struct {
	Key             string           `json:"key"`
	TotalClicks     int64            `json:"total_clicks"`
	UniqueCountries int              `json:"unique_countries"`
	UniqueDevices   int              `json:"unique_devices"`
	ClicksByDate    map[string]int64 `json:"clicks_by_date"`
	ClicksByCountry map[string]int64 `json:"clicks_by_country"`
	ClicksByDevice  map[string]int64 `json:"clicks_by_device"`
	Recent          []Click          `json:"recent"`
}

// DashboardOverview holds the headline numbers for one user's links
type DashboardOverview struct {
	TotalLinks       int64 `json:"total_links"`
	ClicksToday      int64 `json:"clicks_today"`
	TotalClicks      int64 `json:"total_clicks"`
	AvgClicksPerLink int64 `json:"avg_clicks_per_link"`
}

// DailyClicks is one point of the per-day click series
type DailyClicks struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// TopLink is one row of the most-clicked-links table
type TopLink struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ShortURL  string    `json:"short_url"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardResponse aggregates click activity across all of a user's links
type DashboardResponse struct {
	Overview  DashboardOverview `json:"overview"`
	Last7Days []DailyClicks     `json:"last_7_days"`
	TopLinks  []TopLink         `json:"top_links"`
}
