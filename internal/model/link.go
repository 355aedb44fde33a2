package model

import (
	"time"

	"github.com/google/uuid"
)

// Metadata holds optional display metadata for a link.
// It has no effect on redirect resolution.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Link represents a shortening rule
type Link struct {
	ID              uuid.UUID         `json:"id"`
	Key             string            `json:"key"`
	URL             string            `json:"url"`
	PasswordHash    *string           `json:"password_hash,omitempty"`
	GeoTargeting    map[string]string `json:"geo_targeting,omitempty"`
	DeviceTargeting map[string]string `json:"device_targeting,omitempty"`
	Metadata        *Metadata         `json:"metadata,omitempty"`
	UserID          string            `json:"user_id"`
	ExpiresAt       *time.Time        `json:"expires_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Expired reports whether the link's expiry instant has passed.
func (l *Link) Expired() bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(time.Now())
}

// PasswordProtected reports whether a password gates this link.
func (l *Link) PasswordProtected() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// CreateLinkRequest represents the request body for creating a link
type CreateLinkRequest struct {
	URL             string            `json:"url" binding:"required,url"`
	Key             string            `json:"key,omitempty"`
	Password        string            `json:"password,omitempty"`
	GeoTargeting    map[string]string `json:"geo_targeting,omitempty"`
	DeviceTargeting map[string]string `json:"device_targeting,omitempty"`
	Metadata        *Metadata         `json:"metadata,omitempty"`
	ExpiresAt       *time.Time        `json:"expires_at,omitempty"`
}

// UpdateLinkRequest represents the request body for an owner update.
// Nil pointers mean "leave unchanged"; the key itself is immutable.
type UpdateLinkRequest struct {
	URL             *string            `json:"url,omitempty" binding:"omitempty,url"`
	Password        *string            `json:"password,omitempty"`
	GeoTargeting    *map[string]string `json:"geo_targeting,omitempty"`
	DeviceTargeting *map[string]string `json:"device_targeting,omitempty"`
	Metadata        *Metadata          `json:"metadata,omitempty"`
	ExpiresAt       *time.Time         `json:"expires_at,omitempty"`
}

// LinkResponse represents the link metadata returned by the API.
// The password hash never leaves the server; only its presence does.
type LinkResponse struct {
	Key             string            `json:"key"`
	URL             string            `json:"url"`
	ShortURL        string            `json:"short_url"`
	HasPassword     bool              `json:"has_password"`
	GeoTargeting    map[string]string `json:"geo_targeting,omitempty"`
	DeviceTargeting map[string]string `json:"device_targeting,omitempty"`
	Metadata        *Metadata         `json:"metadata,omitempty"`
	CreatedAt       string            `json:"created_at"`
	ExpiresAt       string            `json:"expires_at,omitempty"`
}

// VerifyPasswordRequest represents the body of a password verification attempt
type VerifyPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// VerifyPasswordResponse is returned on a successful verification
type VerifyPasswordResponse struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
