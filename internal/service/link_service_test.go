package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surojit-ghosh/url-shortener/internal/model"
	"golang.org/x/crypto/bcrypt"
)

func newLinkService(store *fakeLinkStore) *LinkService {
	keygen := NewKeyGenerator(store, 7, 10)
	return NewLinkService(store, keygen, "http://localhost:8080")
}

func TestLinkService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates link with generated key", func(t *testing.T) {
		store := newFakeLinkStore()
		s := newLinkService(store)

		resp, err := s.Create(ctx, "u1", &model.CreateLinkRequest{URL: "https://example.com/long"})
		require.NoError(t, err)
		assert.Len(t, resp.Key, 7)
		assert.Equal(t, "http://localhost:8080/"+resp.Key, resp.ShortURL)
		assert.False(t, resp.HasPassword)
	})

	t.Run("creates link with custom key and targeting", func(t *testing.T) {
		store := newFakeLinkStore()
		s := newLinkService(store)

		resp, err := s.Create(ctx, "u1", &model.CreateLinkRequest{
			URL:             "https://example.com",
			Key:             "promo_2026",
			GeoTargeting:    map[string]string{"DE": "https://example.de"},
			DeviceTargeting: map[string]string{"ios": "https://example.com/app"},
			Metadata:        &model.Metadata{Title: "Promo"},
		})
		require.NoError(t, err)
		assert.Equal(t, "promo_2026", resp.Key)
		assert.Equal(t, "https://example.de", resp.GeoTargeting["DE"])
		assert.Equal(t, "Promo", resp.Metadata.Title)
	})

	t.Run("hashes the password and never echoes it", func(t *testing.T) {
		store := newFakeLinkStore()
		s := newLinkService(store)

		resp, err := s.Create(ctx, "u1", &model.CreateLinkRequest{
			URL:      "https://example.com",
			Key:      "gated",
			Password: "secret",
		})
		require.NoError(t, err)
		assert.True(t, resp.HasPassword)

		stored, err := store.GetByKey(ctx, "gated")
		require.NoError(t, err)
		require.NotNil(t, stored.PasswordHash)
		assert.NotContains(t, *stored.PasswordHash, "secret")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("secret")))
	})

	t.Run("rejects invalid URL", func(t *testing.T) {
		s := newLinkService(newFakeLinkStore())
		_, err := s.Create(ctx, "u1", &model.CreateLinkRequest{URL: "not a url", Key: "x"})
		assert.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("rejects invalid key", func(t *testing.T) {
		s := newLinkService(newFakeLinkStore())
		for _, key := range []string{"has space", "bad/slash", "waaaaaaaaaaaaaaaaaay-too-long-for-a-key", "ümlaut"} {
			_, err := s.Create(ctx, "u1", &model.CreateLinkRequest{URL: "https://example.com", Key: key})
			assert.ErrorIs(t, err, ErrInvalidKey, "key %q should be rejected", key)
		}
	})

	t.Run("rejects duplicate key", func(t *testing.T) {
		store := newFakeLinkStore()
		s := newLinkService(store)

		_, err := s.Create(ctx, "u1", &model.CreateLinkRequest{URL: "https://example.com", Key: "taken"})
		require.NoError(t, err)

		_, err = s.Create(ctx, "u2", &model.CreateLinkRequest{URL: "https://other.example", Key: "taken"})
		assert.ErrorIs(t, err, ErrKeyExists)
	})
}

func TestLinkService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns metadata for existing link", func(t *testing.T) {
		store := newFakeLinkStore()
		s := newLinkService(store)
		_, err := s.Create(ctx, "u1", &model.CreateLinkRequest{URL: "https://example.com", Key: "meta"})
		require.NoError(t, err)

		resp, err := s.Get(ctx, "meta")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", resp.URL)
	})

	t.Run("unknown key", func(t *testing.T) {
		s := newLinkService(newFakeLinkStore())
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("expired link is gone", func(t *testing.T) {
		store := newFakeLinkStore()
		s := newLinkService(store)
		past := time.Now().Add(-time.Minute)
		_, err := s.Create(ctx, "u1", &model.CreateLinkRequest{URL: "https://example.com", Key: "old", ExpiresAt: &past})
		require.NoError(t, err)

		_, err = s.Get(ctx, "old")
		assert.ErrorIs(t, err, ErrLinkExpired)
	})
}

func TestLinkService_Update(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fakeLinkStore, *LinkService) {
		store := newFakeLinkStore()
		s := newLinkService(store)
		_, err := s.Create(ctx, "owner", &model.CreateLinkRequest{
			URL:      "https://example.com",
			Key:      "mine",
			Password: "secret",
		})
		require.NoError(t, err)
		return store, s
	}

	t.Run("owner updates url and targeting", func(t *testing.T) {
		_, s := setup(t)
		newURL := "https://new.example.com"
		geo := map[string]string{"FR": "https://fr.example.com"}

		resp, err := s.Update(ctx, "owner", "mine", &model.UpdateLinkRequest{URL: &newURL, GeoTargeting: &geo})
		require.NoError(t, err)
		assert.Equal(t, newURL, resp.URL)
		assert.Equal(t, "https://fr.example.com", resp.GeoTargeting["FR"])
	})

	t.Run("empty password clears protection", func(t *testing.T) {
		store, s := setup(t)
		empty := ""

		resp, err := s.Update(ctx, "owner", "mine", &model.UpdateLinkRequest{Password: &empty})
		require.NoError(t, err)
		assert.False(t, resp.HasPassword)

		stored, err := store.GetByKey(ctx, "mine")
		require.NoError(t, err)
		assert.Nil(t, stored.PasswordHash)
	})

	t.Run("non-owner gets not found", func(t *testing.T) {
		_, s := setup(t)
		newURL := "https://hijack.example"
		_, err := s.Update(ctx, "intruder", "mine", &model.UpdateLinkRequest{URL: &newURL})
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})
}

func TestLinkService_Delete(t *testing.T) {
	ctx := context.Background()
	store := newFakeLinkStore()
	s := newLinkService(store)
	_, err := s.Create(ctx, "owner", &model.CreateLinkRequest{URL: "https://example.com", Key: "doomed"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "intruder", "doomed"), ErrLinkNotFound)

	require.NoError(t, s.Delete(ctx, "owner", "doomed"))
	_, err = s.Get(ctx, "doomed")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}
