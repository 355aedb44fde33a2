package service

import "errors"

var (
	ErrInvalidURL             = errors.New("invalid URL format")
	ErrInvalidKey             = errors.New("invalid key format")
	ErrLinkNotFound           = errors.New("link not found")
	ErrLinkExpired            = errors.New("link has expired")
	ErrKeyExists              = errors.New("key already exists")
	ErrPasswordRequired       = errors.New("link is password protected")
	ErrNotPasswordProtected   = errors.New("link is not password protected")
	ErrInvalidPassword        = errors.New("invalid password")
	ErrKeyGenerationExhausted = errors.New("failed to generate a unique key")
)
