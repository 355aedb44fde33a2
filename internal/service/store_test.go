package service

import (
	"context"
	"errors"
	"sync"

	"github.com/surojit-ghosh/url-shortener/internal/model"
	"github.com/surojit-ghosh/url-shortener/internal/repository"
)

// fakeLinkStore is an in-memory LinkStore for unit tests.
type fakeLinkStore struct {
	mu    sync.Mutex
	links map[string]*model.Link

	// failGet forces GetByKey to return a store-level error
	failGet error
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{links: map[string]*model.Link{}}
}

func (f *fakeLinkStore) Create(ctx context.Context, link *model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[link.Key]; ok {
		return repository.ErrKeyConflict
	}
	cp := *link
	f.links[link.Key] = &cp
	return nil
}

func (f *fakeLinkStore) GetByKey(ctx context.Context, key string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	link, ok := f.links[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *link
	return &cp, nil
}

func (f *fakeLinkStore) KeyExists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.links[key]
	return ok, nil
}

func (f *fakeLinkStore) ListByUser(ctx context.Context, userID string) ([]model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Link
	for _, l := range f.links {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLinkStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.links {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeLinkStore) Update(ctx context.Context, link *model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.links[link.Key]
	if !ok || existing.UserID != link.UserID {
		return repository.ErrNotFound
	}
	cp := *link
	f.links[link.Key] = &cp
	return nil
}

func (f *fakeLinkStore) Delete(ctx context.Context, key, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.links[key]
	if !ok || existing.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.links, key)
	return nil
}

var errStoreDown = errors.New("store unavailable")

var _ repository.LinkStore = (*fakeLinkStore)(nil)
