package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/surojit-ghosh/url-shortener/internal/model"
	"github.com/surojit-ghosh/url-shortener/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost for link passwords
const passwordHashCost = 12

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,25}$`)

// LinkService handles business logic for link management
type LinkService struct {
	store   repository.LinkStore
	keygen  *KeyGenerator
	baseURL string
}

// LinkServiceInterface defines the contract for link management operations
type LinkServiceInterface interface {
	Create(ctx context.Context, userID string, req *model.CreateLinkRequest) (*model.LinkResponse, error)
	Get(ctx context.Context, key string) (*model.LinkResponse, error)
	List(ctx context.Context, userID string) ([]model.LinkResponse, error)
	Update(ctx context.Context, userID, key string, req *model.UpdateLinkRequest) (*model.LinkResponse, error)
	Delete(ctx context.Context, userID, key string) error
}

// NewLinkService creates a new link service
func NewLinkService(store repository.LinkStore, keygen *KeyGenerator, baseURL string) *LinkService {
	return &LinkService{store: store, keygen: keygen, baseURL: baseURL}
}

// Create stores a new shortening rule. A custom key is taken as-is
// after validation; otherwise the generator produces one. Passwords are
// hashed before they touch the store.
func (s *LinkService) Create(ctx context.Context, userID string, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	if !isAbsoluteURL(req.URL) {
		return nil, ErrInvalidURL
	}

	key := req.Key
	if key != "" {
		if !keyPattern.MatchString(key) {
			return nil, ErrInvalidKey
		}
	} else {
		var err error
		key, err = s.keygen.Generate(ctx)
		if err != nil {
			return nil, err
		}
	}

	link := &model.Link{
		ID:              uuid.New(),
		Key:             key,
		URL:             req.URL,
		GeoTargeting:    req.GeoTargeting,
		DeviceTargeting: req.DeviceTargeting,
		Metadata:        req.Metadata,
		UserID:          userID,
		ExpiresAt:       req.ExpiresAt,
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
		if err != nil {
			return nil, err
		}
		h := string(hash)
		link.PasswordHash = &h
	}

	if err := s.store.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrKeyConflict) {
			return nil, ErrKeyExists
		}
		return nil, err
	}

	return s.toResponse(link), nil
}

// Get retrieves link metadata by key without recording a click
func (s *LinkService) Get(ctx context.Context, key string) (*model.LinkResponse, error) {
	link, err := s.store.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if link.Expired() {
		return nil, ErrLinkExpired
	}
	return s.toResponse(link), nil
}

// List returns all links owned by a user, newest first
func (s *LinkService) List(ctx context.Context, userID string) ([]model.LinkResponse, error) {
	links, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.LinkResponse, 0, len(links))
	for i := range links {
		out = append(out, *s.toResponse(&links[i]))
	}
	return out, nil
}

// Update applies an owner-scoped partial update. The key is immutable;
// a non-nil empty password clears protection, a non-empty one re-hashes.
func (s *LinkService) Update(ctx context.Context, userID, key string, req *model.UpdateLinkRequest) (*model.LinkResponse, error) {
	link, err := s.store.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if link.UserID != userID {
		// Do not reveal that the key exists to a non-owner
		return nil, ErrLinkNotFound
	}

	if req.URL != nil {
		if !isAbsoluteURL(*req.URL) {
			return nil, ErrInvalidURL
		}
		link.URL = *req.URL
	}
	if req.GeoTargeting != nil {
		link.GeoTargeting = *req.GeoTargeting
	}
	if req.DeviceTargeting != nil {
		link.DeviceTargeting = *req.DeviceTargeting
	}
	if req.Metadata != nil {
		link.Metadata = req.Metadata
	}
	if req.ExpiresAt != nil {
		link.ExpiresAt = req.ExpiresAt
	}
	if req.Password != nil {
		if *req.Password == "" {
			link.PasswordHash = nil
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), passwordHashCost)
			if err != nil {
				return nil, err
			}
			h := string(hash)
			link.PasswordHash = &h
		}
	}

	if err := s.store.Update(ctx, link); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return s.toResponse(link), nil
}

// Delete removes a link owned by the user. Hard delete, clicks cascade.
func (s *LinkService) Delete(ctx context.Context, userID, key string) error {
	if err := s.store.Delete(ctx, key, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return nil
}

func (s *LinkService) toResponse(link *model.Link) *model.LinkResponse {
	var expiresAt string
	if link.ExpiresAt != nil {
		expiresAt = link.ExpiresAt.Format(time.RFC3339)
	}
	return &model.LinkResponse{
		Key:             link.Key,
		URL:             link.URL,
		ShortURL:        s.baseURL + "/" + link.Key,
		HasPassword:     link.PasswordProtected(),
		GeoTargeting:    link.GeoTargeting,
		DeviceTargeting: link.DeviceTargeting,
		Metadata:        link.Metadata,
		CreatedAt:       link.CreatedAt.Format(time.RFC3339),
		ExpiresAt:       expiresAt,
	}
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}

// Ensure LinkService implements LinkServiceInterface at compile time
var _ LinkServiceInterface = (*LinkService)(nil)
