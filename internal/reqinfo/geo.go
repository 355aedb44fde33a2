package reqinfo

import (
	"log/slog"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/sony/gobreaker"
)

// GeoResolver resolves an IP address to a 2-letter country code using a
// local GeoLite2 database. Lookups are best-effort: a malformed IP, a
// lookup miss, a missing database or a tripped breaker all yield nil,
// never an error. The redirect path must not block or fail on geo.
type GeoResolver struct {
	reader  *geoip2.Reader
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewGeoResolver opens the database at dbPath. An empty path or an open
// failure produces a degraded resolver that always returns nil; the
// condition is logged once at startup rather than per lookup.
func NewGeoResolver(dbPath string, logger *slog.Logger) *GeoResolver {
	r := &GeoResolver{
		logger: logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "geoip",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}

	if dbPath == "" {
		logger.Warn("geo database not configured, country resolution disabled")
		return r
	}

	reader, err := geoip2.Open(dbPath)
	if err != nil {
		logger.Warn("failed to open geo database, country resolution disabled",
			slog.String("path", dbPath),
			slog.String("error", err.Error()))
		return r
	}

	r.reader = reader
	return r
}

// Country returns the ISO country code for ip, or nil when it cannot
// be determined for any reason.
func (g *GeoResolver) Country(ip string) *string {
	if g == nil || g.reader == nil {
		return nil
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}

	result, err := g.breaker.Execute(func() (any, error) {
		return g.reader.Country(parsed)
	})
	if err != nil {
		g.logger.Debug("geo lookup failed", slog.String("ip", ip), slog.String("error", err.Error()))
		return nil
	}

	country := result.(*geoip2.Country)
	if country == nil || country.Country.IsoCode == "" {
		return nil
	}
	code := country.Country.IsoCode
	return &code
}

// Close releases the underlying database reader.
func (g *GeoResolver) Close() {
	if g.reader != nil {
		g.reader.Close()
	}
}
