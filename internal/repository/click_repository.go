package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/surojit-ghosh/url-shortener/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ClickBreakdown groups a link's clicks along the recorded dimensions.
// Map keys use "Unknown" for clicks with no country or device value.
type ClickBreakdown struct {
	ByDate    map[string]int64
	ByCountry map[string]int64
	ByDevice  map[string]int64
}

// ClickRepository handles database operations for click events.
// Clicks are append-only: no update or delete exists here.
type ClickRepository struct {
	db *pgxpool.Pool
}

// NewClickRepository creates a new click repository
func NewClickRepository(db *pgxpool.Pool) *ClickRepository {
	return &ClickRepository{db: db}
}

// Create appends one click row. The clicked_at timestamp is assigned
// by the database at write time.
func (r *ClickRepository) Create(ctx context.Context, click *model.Click) error {
	ctx, span := tracer.Start(ctx, "db.insert",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "INSERT"),
			attribute.String("db.sql.table", "clicks"),
		),
	)
	defer span.End()

	query := `
		INSERT INTO clicks (link_id, target_url, client_ip, user_agent, country_code, device_type, referer)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, clicked_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		click.LinkID,
		click.TargetURL,
		click.ClientIP,
		click.UserAgent,
		click.CountryCode,
		click.DeviceType,
		click.Referer,
	).Scan(&click.ID, &click.ClickedAt)

	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// CountByLink returns the total number of clicks recorded for a link
func (r *ClickRepository) CountByLink(ctx context.Context, linkID uuid.UUID) (int64, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "clicks"),
		),
	)
	defer span.End()

	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clicks WHERE link_id = $1`, linkID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}

// RecentByLink returns the most recent clicks for a link, newest first
func (r *ClickRepository) RecentByLink(ctx context.Context, linkID uuid.UUID, limit int) ([]model.Click, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "clicks"),
		),
	)
	defer span.End()

	query := `
		SELECT id, link_id, target_url, client_ip, user_agent, country_code, device_type, referer, clicked_at
		FROM clicks
		WHERE link_id = $1
		ORDER BY clicked_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, linkID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	var clicks []model.Click
	for rows.Next() {
		var c model.Click
		if err := rows.Scan(
			&c.ID,
			&c.LinkID,
			&c.TargetURL,
			&c.ClientIP,
			&c.UserAgent,
			&c.CountryCode,
			&c.DeviceType,
			&c.Referer,
			&c.ClickedAt,
		); err != nil {
			span.RecordError(err)
			return nil, err
		}
		clicks = append(clicks, c)
	}
	return clicks, rows.Err()
}

// BreakdownByLink groups a link's clicks by day, country and device.
// Days are bucketed in UTC to match the recorded clicked_at values.
func (r *ClickRepository) BreakdownByLink(ctx context.Context, linkID uuid.UUID) (*ClickBreakdown, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "clicks"),
		),
	)
	defer span.End()

	breakdown := &ClickBreakdown{
		ByDate:    make(map[string]int64),
		ByCountry: make(map[string]int64),
		ByDevice:  make(map[string]int64),
	}

	queries := []struct {
		sql  string
		dest map[string]int64
	}{
		{
			sql: `SELECT to_char(clicked_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)
				FROM clicks WHERE link_id = $1 GROUP BY 1`,
			dest: breakdown.ByDate,
		},
		{
			sql: `SELECT COALESCE(country_code, 'Unknown'), COUNT(*)
				FROM clicks WHERE link_id = $1 GROUP BY 1`,
			dest: breakdown.ByCountry,
		},
		{
			sql: `SELECT COALESCE(device_type, 'Unknown'), COUNT(*)
				FROM clicks WHERE link_id = $1 GROUP BY 1`,
			dest: breakdown.ByDevice,
		},
	}

	for _, q := range queries {
		rows, err := r.db.Query(ctx, q.sql, linkID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		for rows.Next() {
			var bucket string
			var count int64
			if err := rows.Scan(&bucket, &count); err != nil {
				rows.Close()
				span.RecordError(err)
				return nil, err
			}
			q.dest[bucket] = count
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	return breakdown, nil
}

// CountByUserSince returns the number of clicks across all of a user's
// links recorded at or after the given instant. A zero time disables
// the lower bound.
func (r *ClickRepository) CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "clicks"),
		),
	)
	defer span.End()

	query := `
		SELECT COUNT(*)
		FROM clicks c
		JOIN links l ON l.id = c.link_id
		WHERE l.user_id = $1 AND ($2::timestamptz IS NULL OR c.clicked_at >= $2)`

	var lower *time.Time
	if !since.IsZero() {
		lower = &since
	}

	var count int64
	err := r.db.QueryRow(ctx, query, userID, lower).Scan(&count)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}

// DailyCountsByUser returns per-day (UTC) click counts across all of a
// user's links, starting at the given instant. Days without clicks are
// absent from the map.
func (r *ClickRepository) DailyCountsByUser(ctx context.Context, userID string, since time.Time) (map[string]int64, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "clicks"),
		),
	)
	defer span.End()

	query := `
		SELECT to_char(c.clicked_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)
		FROM clicks c
		JOIN links l ON l.id = c.link_id
		WHERE l.user_id = $1 AND c.clicked_at >= $2
		GROUP BY 1`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			span.RecordError(err)
			return nil, err
		}
		counts[day] = count
	}
	return counts, rows.Err()
}

// TopLinksByUser returns a user's links ordered by click count, most
// clicked first. Links without clicks still appear.
func (r *ClickRepository) TopLinksByUser(ctx context.Context, userID string, limit int) ([]model.TopLink, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "clicks"),
		),
	)
	defer span.End()

	query := `
		SELECT l.key, l.url, l.created_at, COUNT(c.id)
		FROM links l
		LEFT JOIN clicks c ON c.link_id = l.id
		WHERE l.user_id = $1
		GROUP BY l.id
		ORDER BY COUNT(c.id) DESC, l.created_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	var links []model.TopLink
	for rows.Next() {
		var l model.TopLink
		if err := rows.Scan(&l.Key, &l.URL, &l.CreatedAt, &l.Clicks); err != nil {
			span.RecordError(err)
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
