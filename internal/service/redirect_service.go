package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/surojit-ghosh/url-shortener/internal/analytics"
	"github.com/surojit-ghosh/url-shortener/internal/model"
	"github.com/surojit-ghosh/url-shortener/internal/reqinfo"
	"github.com/surojit-ghosh/url-shortener/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// publishTimeout bounds the detached click dispatch
const publishTimeout = 5 * time.Second

// ClickPublisher is the outbound edge of the click-tracking path.
type ClickPublisher interface {
	Publish(ctx context.Context, ev analytics.ClickEvent) error
}

// RedirectService coordinates redirect resolution: look the link up,
// run the expiry and password gates, apply targeting, and dispatch the
// click event without blocking the response.
type RedirectService struct {
	store     repository.LinkStore
	publisher ClickPublisher
	logger    *slog.Logger
}

// RedirectServiceInterface defines the contract for redirect resolution
type RedirectServiceInterface interface {
	Redirect(ctx context.Context, key string, info reqinfo.Info) (string, error)
	VerifyPassword(ctx context.Context, key, password string, info reqinfo.Info) (string, error)
}

// NewRedirectService creates a redirect service. A nil publisher
// disables click dispatch (used in tests and degraded deployments).
func NewRedirectService(store repository.LinkStore, publisher ClickPublisher, logger *slog.Logger) *RedirectService {
	return &RedirectService{store: store, publisher: publisher, logger: logger}
}

// Redirect resolves key to its final destination URL.
// Gate order is fixed: lookup, expiry, password, then targeting.
// Store failures collapse to ErrLinkNotFound — the redirecting client
// never learns about internal errors — but are logged here.
func (s *RedirectService) Redirect(ctx context.Context, key string, info reqinfo.Info) (string, error) {
	link, err := s.lookup(ctx, key)
	if err != nil {
		return "", err
	}

	if link.Expired() {
		return "", ErrLinkExpired
	}
	if link.PasswordProtected() {
		// No verification sessions exist on this path: every request to
		// a gated link gets the challenge, never a URL.
		return "", ErrPasswordRequired
	}

	target := ResolveTarget(link, info.CountryCode, info.DeviceType)
	s.dispatchClick(link.Key, target, info)
	return target, nil
}

// VerifyPassword checks a plaintext guess against the stored hash and,
// on success, resolves the destination with the same targeting
// precedence as the redirect path.
func (s *RedirectService) VerifyPassword(ctx context.Context, key, password string, info reqinfo.Info) (string, error) {
	link, err := s.lookup(ctx, key)
	if err != nil {
		return "", err
	}

	if link.Expired() {
		return "", ErrLinkExpired
	}
	if !link.PasswordProtected() {
		return "", ErrNotPasswordProtected
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}

	target := ResolveTarget(link, info.CountryCode, info.DeviceType)
	s.dispatchClick(link.Key, target, info)
	return target, nil
}

func (s *RedirectService) lookup(ctx context.Context, key string) (*model.Link, error) {
	link, err := s.store.GetByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("link lookup failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil, ErrLinkNotFound
	}
	return link, nil
}

// dispatchClick publishes the resolution snapshot on a detached
// goroutine. The context is deliberately decoupled from the request so
// a client disconnect does not cancel the record; failure is logged and
// never reaches the response path.
func (s *RedirectService) dispatchClick(key, target string, info reqinfo.Info) {
	if s.publisher == nil {
		return
	}

	ev := analytics.ClickEvent{
		Key:         key,
		TargetURL:   target,
		CountryCode: info.CountryCode,
		DeviceType:  info.DeviceType,
		OccurredAt:  time.Now().UTC(),
	}
	if info.ClientIP != "" {
		ev.ClientIP = &info.ClientIP
	}
	if info.UserAgent != "" {
		ev.UserAgent = &info.UserAgent
	}
	if info.Referer != "" {
		ev.Referer = &info.Referer
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("failed to publish click event",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}()
}

// Ensure RedirectService implements RedirectServiceInterface at compile time
var _ RedirectServiceInterface = (*RedirectService)(nil)
