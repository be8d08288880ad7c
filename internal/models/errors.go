package models

import "errors"

// Application-wide standard errors
var (
	// Common resource/DB errors
	ErrStoryNotFound   = errors.New("story not found")
	ErrProfileNotFound = errors.New("user profile not found")

	// Request errors
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Token errors (issued by the external auth provider, verified here)
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Generation lifecycle errors
	ErrUpstreamDispatch  = errors.New("upstream webhook dispatch failed")
	ErrStaleStatusUpdate = errors.New("status update would regress a newer state")
	ErrSlugTaken         = errors.New("slug already in use")
	ErrSlugExhausted     = errors.New("could not find a free slug candidate")

	// Profile errors
	ErrProfileExists = errors.New("profile already exists")
	ErrUsernameTaken = errors.New("username already taken")
)
