package service

import (
	"context"
	"crypto/rand"

	"github.com/surojit-ghosh/url-shortener/internal/repository"
)

// 62-symbol alphabet for generated keys
const keyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// KeyGenerator produces random short keys that do not exist in the
// store at generation time. The existence check is racy (TOCTOU); the
// store's unique constraint remains the final authority and the caller
// handles ErrKeyConflict from the insert.
type KeyGenerator struct {
	store       repository.LinkStore
	length      int
	maxAttempts int
}

// NewKeyGenerator creates a key generator
func NewKeyGenerator(store repository.LinkStore, length, maxAttempts int) *KeyGenerator {
	return &KeyGenerator{store: store, length: length, maxAttempts: maxAttempts}
}

// Generate returns a fresh key, retrying on collision up to the attempt
// cap. Collision probability over a 62-symbol alphabet at length 7 is
// negligible; the cap guards against a pathological store state.
func (g *KeyGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		key, err := randomKey(g.length)
		if err != nil {
			return "", err
		}
		exists, err := g.store.KeyExists(ctx, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
	return "", ErrKeyGenerationExhausted
}

// randomKey draws length symbols from the alphabet with rejection
// sampling so all 62 symbols stay equally likely.
func randomKey(length int) (string, error) {
	// 248 is the largest multiple of 62 below 256
	const max = 248

	key := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(key) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			key = append(key, keyAlphabet[int(b)%len(keyAlphabet)])
			if len(key) == length {
				break
			}
		}
	}
	return string(key), nil
}
