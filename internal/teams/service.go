package teams

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for teams.
type RepositoryPort interface {
	ListTeams(ctx context.Context) ([]Team, error)
	GetTeam(ctx context.Context, id int64) (Team, error)
	CreateTeam(ctx context.Context, name, description string) (Team, error)
	UpdateTeam(ctx context.Context, id int64, name, description string) (Team, error)
	DeleteTeam(ctx context.Context, id int64) error
	LinkProfile(ctx context.Context, teamID, profileID int64) error
	UnlinkProfile(ctx context.Context, teamID, profileID int64) error
	AddMember(ctx context.Context, teamID, userID int64, role string) error
	RemoveMember(ctx context.Context, teamID, userID int64) error
	ListMembers(ctx context.Context, teamID int64) ([]Member, error)
	ListProfileIDs(ctx context.Context, teamID int64) ([]int64, error)
}

// InvalidationHook evicts cached permission resolutions. Team-wide
// mutations evict every member; membership changes evict just the user.
type InvalidationHook interface {
	TeamChanged(ctx context.Context, teamID int64) error
	PrincipalChanged(ctx context.Context, principalID int64) error
}

// Service handles team business logic. Permission-affecting mutations
// fire the invalidation hook synchronously before returning.
type Service struct {
	repo       RepositoryPort
	invalidate InvalidationHook
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, invalidate InvalidationHook) *Service {
	return &Service{repo: repo, invalidate: invalidate}
}

// ListTeams returns all teams.
func (s *Service) ListTeams(ctx context.Context) ([]Team, error) {
	return s.repo.ListTeams(ctx)
}

// GetTeam fetches one team.
func (s *Service) GetTeam(ctx context.Context, id int64) (Team, error) {
	return s.repo.GetTeam(ctx, id)
}

// CreateTeam inserts a new team.
func (s *Service) CreateTeam(ctx context.Context, name, description string) (Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, errors.New("teams: name required")
	}
	return s.repo.CreateTeam(ctx, name, strings.TrimSpace(description))
}

// UpdateTeam edits name and description. No grants change.
func (s *Service) UpdateTeam(ctx context.Context, id int64, name, description string) (Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, errors.New("teams: name required")
	}
	return s.repo.UpdateTeam(ctx, id, name, strings.TrimSpace(description))
}

// DeleteTeam removes a team and evicts every member's cached resolution.
func (s *Service) DeleteTeam(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTeam(ctx, id); err != nil {
		return err
	}
	return s.invalidate.TeamChanged(ctx, id)
}

// LinkProfile attaches a profile to the team; all members gain its
// permissions, so the whole team is evicted.
func (s *Service) LinkProfile(ctx context.Context, teamID, profileID int64) error {
	if err := s.repo.LinkProfile(ctx, teamID, profileID); err != nil {
		return err
	}
	return s.invalidate.TeamChanged(ctx, teamID)
}

// UnlinkProfile detaches a profile from the team.
func (s *Service) UnlinkProfile(ctx context.Context, teamID, profileID int64) error {
	if err := s.repo.UnlinkProfile(ctx, teamID, profileID); err != nil {
		return err
	}
	return s.invalidate.TeamChanged(ctx, teamID)
}

// AddMember adds a user to the team. Only that user's resolution
// changes.
func (s *Service) AddMember(ctx context.Context, teamID, userID int64, role string) error {
	if role == "" {
		role = "member"
	}
	if err := s.repo.AddMember(ctx, teamID, userID, role); err != nil {
		return err
	}
	return s.invalidate.PrincipalChanged(ctx, userID)
}

// RemoveMember removes a user from the team.
func (s *Service) RemoveMember(ctx context.Context, teamID, userID int64) error {
	if err := s.repo.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}
	return s.invalidate.PrincipalChanged(ctx, userID)
}

// ListMembers returns the memberships of a team.
func (s *Service) ListMembers(ctx context.Context, teamID int64) ([]Member, error) {
	return s.repo.ListMembers(ctx, teamID)
}

// ListProfileIDs returns the profile ids linked to a team.
func (s *Service) ListProfileIDs(ctx context.Context, teamID int64) ([]int64, error) {
	return s.repo.ListProfileIDs(ctx, teamID)
}
