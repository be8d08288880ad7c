package models

import (
	"time"

	"github.com/google/uuid"
)

// Sentinel labels shown for missing or soft-deleted authors. The German
// strings are part of the public contract with the frontend.
const (
	DeletedUserLabel   = "Gelöschter Nutzer"
	UnknownUserLabel   = "Unbekannter Nutzer"
	AnonymousAuthorTag = "Anonymer Autor"
)

// UserProfile is the public-facing identity attached to stories. It is
// decoupled from the auth provider account: profiles are created lazily on
// first authenticated access and soft-deleted on account closure while the
// authored stories survive.
type UserProfile struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	DisplayName string     `json:"display_name" db:"display_name"`
	Username    *string    `json:"username,omitempty" db:"username"`
	AvatarURL   *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio         *string    `json:"bio,omitempty" db:"bio"`
	IsDeleted   bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// PublicDisplayName returns the name shown to readers. A soft-deleted profile
// always presents the fixed anonymized identity regardless of what the stored
// fields still hold.
func (p *UserProfile) PublicDisplayName() string {
	if p == nil {
		return UnknownUserLabel
	}
	if p.IsDeleted {
		return DeletedUserLabel
	}
	if p.DisplayName == "" {
		return UnknownUserLabel
	}
	return p.DisplayName
}

// PublicUsername returns the username usable in profile URLs, nil for
// deleted profiles.
func (p *UserProfile) PublicUsername() *string {
	if p == nil || p.IsDeleted {
		return nil
	}
	return p.Username
}

// PublicAvatarURL hides the avatar of deleted profiles.
func (p *UserProfile) PublicAvatarURL() *string {
	if p == nil || p.IsDeleted {
		return nil
	}
	return p.AvatarURL
}

// PublicBio hides the bio of deleted profiles.
func (p *UserProfile) PublicBio() *string {
	if p == nil || p.IsDeleted {
		return nil
	}
	return p.Bio
}

// AuthorDisplayName resolves the author label for a story byline. Stories
// with no author row at all are anonymous rather than deleted.
func AuthorDisplayName(p *UserProfile) string {
	if p == nil {
		return AnonymousAuthorTag
	}
	if p.IsDeleted {
		return DeletedUserLabel
	}
	return p.PublicDisplayName()
}
