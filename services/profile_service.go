package services

import (
	"context"

	"fitmatch_server/models"
	"fitmatch_server/store"
)

// ProfileService is the thin service over the profile store adapter.
type ProfileService struct {
	Profiles store.ProfileStore
}

// NewProfileService wraps a profile store.
func NewProfileService(profiles store.ProfileStore) *ProfileService {
	return &ProfileService{Profiles: profiles}
}

// GetProfile retrieves one profile by user id.
func (ps *ProfileService) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	return ps.Profiles.GetProfile(ctx, userID)
}

// ListProfiles returns a snapshot of all profiles.
func (ps *ProfileService) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	return ps.Profiles.ListProfiles(ctx)
}

// PutProfile upserts the caller's own profile. Ownership is enforced by the
// route: the path id must match the payload id.
func (ps *ProfileService) PutProfile(ctx context.Context, userID string, profile models.Profile) (models.Profile, error) {
	if profile.UserID == "" {
		profile.UserID = userID
	}
	if profile.UserID != userID {
		return models.Profile{}, models.NewValidationError("profile userId does not match the path")
	}
	if err := ps.Profiles.PutProfile(ctx, profile); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}
