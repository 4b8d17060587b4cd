package users

import (
	"context"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	SetProfile(ctx context.Context, userID int64, profileID *int64) error
}

// InvalidationHook evicts one principal's cached permission resolution.
type InvalidationHook interface {
	PrincipalChanged(ctx context.Context, principalID int64) error
}

// Service handles user business logic. Direct profile assignment is a
// permission-affecting mutation: the invalidation hook runs
// synchronously before the call returns.
type Service struct {
	repo       RepositoryPort
	invalidate InvalidationHook
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, invalidate InvalidationHook) *Service {
	return &Service{repo: repo, invalidate: invalidate}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// AssignProfile sets or clears the user's direct profile and evicts the
// user's cached resolution.
func (s *Service) AssignProfile(ctx context.Context, userID int64, profileID *int64) error {
	if err := s.repo.SetProfile(ctx, userID, profileID); err != nil {
		return err
	}
	return s.invalidate.PrincipalChanged(ctx, userID)
}
