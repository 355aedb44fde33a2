package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/surojit-ghosh/url-shortener/internal/model"
)

// CachedLinkRepository is a cache-aside decorator over LinkRepository.
// A nil cache client turns every method into a passthrough, which keeps
// tests and degraded deployments simple.
type CachedLinkRepository struct {
	db    *LinkRepository
	cache *redis.Client
	ttl   time.Duration
}

// LinkStore is the persistence contract the services consume.
type LinkStore interface {
	Create(ctx context.Context, link *model.Link) error
	GetByKey(ctx context.Context, key string) (*model.Link, error)
	KeyExists(ctx context.Context, key string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Link, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, link *model.Link) error
	Delete(ctx context.Context, key, userID string) error
}

// NewCachedLinkRepository wraps a link repository with a Redis cache
func NewCachedLinkRepository(db *LinkRepository, cache *redis.Client, ttl time.Duration) *CachedLinkRepository {
	return &CachedLinkRepository{db: db, cache: cache, ttl: ttl}
}

func cacheKey(key string) string {
	return fmt.Sprintf("link:%s", key)
}

// GetByKey reads through the cache. Redis errors degrade to a plain
// database read; they never fail the lookup.
func (r *CachedLinkRepository) GetByKey(ctx context.Context, key string) (*model.Link, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, cacheKey(key)).Result()
		if err == nil {
			var link model.Link
			if err := json.Unmarshal([]byte(cached), &link); err == nil {
				return &link, nil
			}
		}
	}

	link, err := r.db.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if data, err := json.Marshal(link); err == nil {
			r.cache.Set(ctx, cacheKey(key), data, r.ttl)
		}
	}

	return link, nil
}

// Create inserts the link; the cache fills on first read.
func (r *CachedLinkRepository) Create(ctx context.Context, link *model.Link) error {
	return r.db.Create(ctx, link)
}

// KeyExists is not cached: the generator needs a fresh answer.
func (r *CachedLinkRepository) KeyExists(ctx context.Context, key string) (bool, error) {
	return r.db.KeyExists(ctx, key)
}

// ListByUser is a dashboard query; it bypasses the cache.
func (r *CachedLinkRepository) ListByUser(ctx context.Context, userID string) ([]model.Link, error) {
	return r.db.ListByUser(ctx, userID)
}

// CountByUser is a dashboard query; it bypasses the cache.
func (r *CachedLinkRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.db.CountByUser(ctx, userID)
}

// Update writes through and invalidates the cached entry.
func (r *CachedLinkRepository) Update(ctx context.Context, link *model.Link) error {
	if err := r.db.Update(ctx, link); err != nil {
		return err
	}
	r.invalidate(ctx, link.Key)
	return nil
}

// Delete removes the row and invalidates the cached entry.
func (r *CachedLinkRepository) Delete(ctx context.Context, key, userID string) error {
	if err := r.db.Delete(ctx, key, userID); err != nil {
		return err
	}
	r.invalidate(ctx, key)
	return nil
}

func (r *CachedLinkRepository) invalidate(ctx context.Context, key string) {
	if r.cache != nil {
		r.cache.Del(ctx, cacheKey(key))
	}
}

var _ LinkStore = (*CachedLinkRepository)(nil)
