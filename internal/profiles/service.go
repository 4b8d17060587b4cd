package profiles

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, id int64) (Profile, error)
	CreateProfile(ctx context.Context, name, color string, isDefault bool) (Profile, error)
	UpdateProfile(ctx context.Context, id int64, name, color string, isDefault bool) (Profile, error)
	DeleteProfile(ctx context.Context, id int64) error
	LinkPermission(ctx context.Context, profileID, permissionID int64) error
	UnlinkPermission(ctx context.Context, profileID, permissionID int64) error
	ListPermissionIDs(ctx context.Context, profileID int64) ([]int64, error)
}

// InvalidationHook evicts cached permission resolutions derived from a
// profile. The call is synchronous: a mutation is only complete once the
// eviction has succeeded.
type InvalidationHook interface {
	ProfileChanged(ctx context.Context, profileID int64) error
}

// Service handles profile business logic. Every permission-affecting
// mutation fires the invalidation hook before returning; a failed
// eviction fails the whole operation.
type Service struct {
	repo       RepositoryPort
	invalidate InvalidationHook
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, invalidate InvalidationHook) *Service {
	return &Service{repo: repo, invalidate: invalidate}
}

// ListProfiles returns all profiles.
func (s *Service) ListProfiles(ctx context.Context) ([]Profile, error) {
	return s.repo.ListProfiles(ctx)
}

// GetProfile fetches one profile.
func (s *Service) GetProfile(ctx context.Context, id int64) (Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// CreateProfile inserts a new profile. Creation grants nothing yet, so
// no eviction is needed.
func (s *Service) CreateProfile(ctx context.Context, name, color string, isDefault bool) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, errors.New("profiles: name required")
	}
	return s.repo.CreateProfile(ctx, name, color, isDefault)
}

// UpdateProfile edits name/color/default. Renaming does not change any
// grants, so no eviction is fired.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name, color string, isDefault bool) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, errors.New("profiles: name required")
	}
	return s.repo.UpdateProfile(ctx, id, name, color, isDefault)
}

// DeleteProfile removes a profile and synchronously evicts every
// principal that derived permissions from it.
func (s *Service) DeleteProfile(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProfile(ctx, id); err != nil {
		return err
	}
	return s.invalidate.ProfileChanged(ctx, id)
}

// LinkPermission attaches a permission to the profile and synchronously
// evicts affected principals.
func (s *Service) LinkPermission(ctx context.Context, profileID, permissionID int64) error {
	if err := s.repo.LinkPermission(ctx, profileID, permissionID); err != nil {
		return err
	}
	return s.invalidate.ProfileChanged(ctx, profileID)
}

// UnlinkPermission detaches a permission from the profile and
// synchronously evicts affected principals.
func (s *Service) UnlinkPermission(ctx context.Context, profileID, permissionID int64) error {
	if err := s.repo.UnlinkPermission(ctx, profileID, permissionID); err != nil {
		return err
	}
	return s.invalidate.ProfileChanged(ctx, profileID)
}

// ListPermissionIDs returns the permission ids linked to a profile.
func (s *Service) ListPermissionIDs(ctx context.Context, profileID int64) ([]int64, error) {
	return s.repo.ListPermissionIDs(ctx, profileID)
}
