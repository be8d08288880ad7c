package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storymagic/internal/models"
	"storymagic/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// ProfileService manages the public identities attached to stories.
// Accounts live at the external auth provider; this service only keeps the
// display data and the soft-delete flag.
type ProfileService struct {
	repo   repository.ProfileRepository
	logger *zap.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(repo repository.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		repo:   repo,
		logger: logger.Named("ProfileService"),
	}
}

// EnsureProfile returns the profile for an authenticated user, creating it
// on first access with the display name carried in the token.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID uuid.UUID, displayName string) (*models.UserProfile, error) {
	profile, err := s.repo.GetByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, err
	}

	if displayName == "" {
		displayName = models.UnknownUserLabel
	}
	profile = &models.UserProfile{
		ID:          userID,
		DisplayName: displayName,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		// Lost a creation race against a parallel request for the same
		// user. The row exists now, read it back.
		if errors.Is(err, models.ErrProfileExists) {
			return s.repo.GetByID(ctx, userID)
		}
		return nil, err
	}
	s.logger.Info("Created profile on first access", zap.String("userID", userID.String()))
	return profile, nil
}

// GetProfile returns the anonymization-aware public view of a profile.
func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*models.ProfileResponse, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.NewProfileResponse(profile)
	return &resp, nil
}

// GetProfileByUsername resolves a public profile URL. Deleted profiles are
// not reachable by username.
func (s *ProfileService) GetProfileByUsername(ctx context.Context, username string) (*models.ProfileResponse, error) {
	profile, err := s.repo.GetByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	resp := models.NewProfileResponse(profile)
	return &resp, nil
}

// UpdateProfile applies the owner's edits.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *models.UpdateProfileRequest) (*models.UserProfile, error) {
	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, fmt.Errorf("%w: Anzeigename ist erforderlich", models.ErrValidation)
	}
	if req.Username != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.Username))
		if !usernamePattern.MatchString(normalized) {
			return nil, fmt.Errorf("%w: Benutzername muss 3-30 Zeichen lang sein (a-z, 0-9, _)", models.ErrValidation)
		}
		req.Username = &normalized
	}

	profile, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.IsDeleted {
		return nil, models.ErrForbidden
	}

	profile.DisplayName = strings.TrimSpace(req.DisplayName)
	profile.Username = req.Username
	profile.AvatarURL = req.AvatarURL
	profile.Bio = req.Bio

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile soft-deletes the profile. Authored stories stay published
// under the anonymized byline.
func (s *ProfileService) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	return s.repo.SoftDelete(ctx, userID)
}
