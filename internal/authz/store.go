package authz

import "context"

// Store is the read/write boundary to the relationship data the engine
// resolves against: users, profiles, teams and their link rows. The pgx
// implementation lives in repo.sql.go; tests substitute in-memory fakes.
type Store interface {
	// GetUserProfileID returns the user's direct profile id, or nil when
	// the user has none (or does not exist). Broken pointers are not an
	// error here; downstream joins prune them.
	GetUserProfileID(ctx context.Context, userID int64) (*int64, error)
	// ListUserTeams returns the team memberships of a user.
	ListUserTeams(ctx context.Context, userID int64) ([]TeamMembership, error)
	// ListTeamProfiles returns the distinct profile ids linked to any of
	// the given teams. Links to deleted profiles are excluded.
	ListTeamProfiles(ctx context.Context, teamIDs []int64) ([]int64, error)
	// ListProfilePermissions returns the distinct permissions linked to
	// any of the given profiles. Links to deleted permissions or deleted
	// profiles contribute nothing.
	ListProfilePermissions(ctx context.Context, profileIDs []int64) ([]Permission, error)

	// Catalog access used by the Synchronizer and name lookups.
	ListAllPermissions(ctx context.Context) ([]Permission, error)
	GetPermissionByName(ctx context.Context, name string) (Permission, error)
	CreatePermission(ctx context.Context, name, slug, category, description string) (Permission, error)
}
