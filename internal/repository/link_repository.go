package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/surojit-ghosh/url-shortener/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotFound    = errors.New("link not found")
	ErrKeyConflict = errors.New("key already exists")
)

// LinkRepository handles database operations for links
type LinkRepository struct {
	db *pgxpool.Pool
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts a new link record into the database
func (r *LinkRepository) Create(ctx context.Context, link *model.Link) error {
	ctx, span := tracer.Start(ctx, "db.insert",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "INSERT"),
			attribute.String("db.sql.table", "links"),
			attribute.String("link.key", link.Key),
		),
	)
	defer span.End()

	// The unique constraint on key is the final authority on collisions;
	// a 23505 maps to ErrKeyConflict so callers can retry or report 409.
	query := `
		INSERT INTO links (id, key, url, password_hash, geo_targeting, device_targeting, metadata, user_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		link.ID,
		link.Key,
		link.URL,
		link.PasswordHash,
		link.GeoTargeting,
		link.DeviceTargeting,
		link.Metadata,
		link.UserID,
		link.ExpiresAt,
	).Scan(&link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrKeyConflict
		}
		return err
	}

	return nil
}

// GetByKey retrieves a link by its short key
func (r *LinkRepository) GetByKey(ctx context.Context, key string) (*model.Link, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "links"),
			attribute.String("link.key", key),
		),
	)
	defer span.End()

	query := `
		SELECT id, key, url, password_hash, geo_targeting, device_targeting, metadata, user_id, expires_at, created_at, updated_at
		FROM links
		WHERE key = $1`
	var link model.Link
	err := r.db.QueryRow(ctx, query, key).Scan(
		&link.ID,
		&link.Key,
		&link.URL,
		&link.PasswordHash,
		&link.GeoTargeting,
		&link.DeviceTargeting,
		&link.Metadata,
		&link.UserID,
		&link.ExpiresAt,
		&link.CreatedAt,
		&link.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return &link, nil
}

// KeyExists reports whether a key is already taken. Used by the key
// generator for its pre-insert check; racy by nature, the unique
// constraint remains the authority.
func (r *LinkRepository) KeyExists(ctx context.Context, key string) (bool, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "links"),
			attribute.String("link.key", key),
		),
	)
	defer span.End()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return exists, nil
}

// ListByUser retrieves all links owned by a user, newest first
func (r *LinkRepository) ListByUser(ctx context.Context, userID string) ([]model.Link, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "links"),
		),
	)
	defer span.End()

	query := `
		SELECT id, key, url, password_hash, geo_targeting, device_targeting, metadata, user_id, expires_at, created_at, updated_at
		FROM links
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		var link model.Link
		if err := rows.Scan(
			&link.ID,
			&link.Key,
			&link.URL,
			&link.PasswordHash,
			&link.GeoTargeting,
			&link.DeviceTargeting,
			&link.Metadata,
			&link.UserID,
			&link.ExpiresAt,
			&link.CreatedAt,
			&link.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// CountByUser returns the number of links a user owns
func (r *LinkRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "links"),
		),
	)
	defer span.End()

	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}

// Update overwrites the mutable fields of a link, owner-scoped.
// The key itself is immutable after creation.
func (r *LinkRepository) Update(ctx context.Context, link *model.Link) error {
	ctx, span := tracer.Start(ctx, "db.update",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "UPDATE"),
			attribute.String("db.sql.table", "links"),
			attribute.String("link.key", link.Key),
		),
	)
	defer span.End()

	query := `
		UPDATE links
		SET url = $3, password_hash = $4, geo_targeting = $5, device_targeting = $6, metadata = $7, expires_at = $8, updated_at = NOW()
		WHERE key = $1 AND user_id = $2`
	result, err := r.db.Exec(ctx, query,
		link.Key,
		link.UserID,
		link.URL,
		link.PasswordHash,
		link.GeoTargeting,
		link.DeviceTargeting,
		link.Metadata,
		link.ExpiresAt,
	)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a link by key, owner-scoped. Clicks cascade.
func (r *LinkRepository) Delete(ctx context.Context, key, userID string) error {
	ctx, span := tracer.Start(ctx, "db.delete",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "DELETE"),
			attribute.String("db.sql.table", "links"),
			attribute.String("link.key", key),
		),
	)
	defer span.End()

	result, err := r.db.Exec(ctx, `DELETE FROM links WHERE key = $1 AND user_id = $2`, key, userID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
