package authz_test

import (
	"context"
	"testing"

	"github.com/driftboard/driftboard/internal/authz"
	_ "github.com/driftboard/driftboard/testing"
)

// rowStore mirrors the repository at the row level: link tables keep
// their rows when a parent profile or team is deleted, and the query
// methods prune them the way the SQL joins do. It exists to pin the
// Store contract that dangling links contribute nothing.
type rowStore struct {
	profiles    map[int64]bool
	teams       map[int64]bool
	userProfile map[int64]*int64
	userTeams   []authz.TeamMembership
	teamLinks   map[int64][]int64            // team_profiles rows
	permLinks   map[int64][]authz.Permission // profile_permissions rows
}

func newRowStore() *rowStore {
	return &rowStore{
		profiles:    make(map[int64]bool),
		teams:       make(map[int64]bool),
		userProfile: make(map[int64]*int64),
		teamLinks:   make(map[int64][]int64),
		permLinks:   make(map[int64][]authz.Permission),
	}
}

func (s *rowStore) GetUserProfileID(ctx context.Context, userID int64) (*int64, error) {
	return s.userProfile[userID], nil
}

func (s *rowStore) ListUserTeams(ctx context.Context, userID int64) ([]authz.TeamMembership, error) {
	var out []authz.TeamMembership
	for _, m := range s.userTeams {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *rowStore) ListTeamProfiles(ctx context.Context, teamIDs []int64) ([]int64, error) {
	seen := make(map[int64]struct{})
	var out []int64
	for _, tid := range teamIDs {
		if !s.teams[tid] {
			continue
		}
		for _, pid := range s.teamLinks[tid] {
			if !s.profiles[pid] {
				continue
			}
			if _, ok := seen[pid]; ok {
				continue
			}
			seen[pid] = struct{}{}
			out = append(out, pid)
		}
	}
	return out, nil
}

func (s *rowStore) ListProfilePermissions(ctx context.Context, profileIDs []int64) ([]authz.Permission, error) {
	seen := make(map[int64]struct{})
	var out []authz.Permission
	for _, pid := range profileIDs {
		if !s.profiles[pid] {
			continue
		}
		for _, perm := range s.permLinks[pid] {
			if _, ok := seen[perm.ID]; ok {
				continue
			}
			seen[perm.ID] = struct{}{}
			out = append(out, perm)
		}
	}
	return out, nil
}

func (s *rowStore) ListAllPermissions(ctx context.Context) ([]authz.Permission, error) {
	return nil, nil
}

func (s *rowStore) GetPermissionByName(ctx context.Context, name string) (authz.Permission, error) {
	return authz.Permission{}, authz.ErrNotFound
}

func (s *rowStore) CreatePermission(ctx context.Context, name, slug, category, description string) (authz.Permission, error) {
	return authz.Permission{}, nil
}

func (s *rowStore) grant(profileID int64, id int64, name string) {
	s.profiles[profileID] = true
	s.permLinks[profileID] = append(s.permLinks[profileID], authz.Permission{
		ID: id, Name: name, Slug: authz.Slug(name), Category: "tasks",
	})
}

func TestDeletedProfileLinksGrantNothing(t *testing.T) {
	store := newRowStore()
	store.grant(5, 1, "Criar Tarefas")
	store.userProfile[1] = int64p(5)
	resolver := authz.NewResolver(store)
	ctx := context.Background()

	set, err := resolver.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Has("Criar Tarefas") {
		t.Fatal("control: live profile must grant")
	}

	// Delete the profile row; the users.profile_id pointer and the
	// profile_permissions rows stay behind.
	delete(store.profiles, 5)
	set, err = resolver.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve after delete: %v", err)
	}
	if len(set.Permissions) != 0 {
		t.Fatalf("dangling direct-profile links must grant nothing, got %v", set.Permissions)
	}
}

func TestDeletedTeamLinksGrantNothing(t *testing.T) {
	store := newRowStore()
	store.grant(8, 1, "Visualizar Quadros")
	store.teams[4] = true
	store.teamLinks[4] = []int64{8}
	store.userTeams = []authz.TeamMembership{{UserID: 2, TeamID: 4}}
	resolver := authz.NewResolver(store)
	ctx := context.Background()

	set, err := resolver.Resolve(ctx, 2)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Has("Visualizar Quadros") {
		t.Fatal("control: live team must grant")
	}

	// Delete the team row; user_teams and team_profiles rows linger.
	delete(store.teams, 4)
	set, err = resolver.Resolve(ctx, 2)
	if err != nil {
		t.Fatalf("resolve after delete: %v", err)
	}
	if len(set.Permissions) != 0 {
		t.Fatalf("dangling team links must grant nothing, got %v", set.Permissions)
	}
}

func TestDeletedLinkedProfileGrantsNothingThroughLiveTeam(t *testing.T) {
	store := newRowStore()
	store.grant(8, 1, "Editar Tarefas")
	store.teams[4] = true
	store.teamLinks[4] = []int64{8}
	store.userTeams = []authz.TeamMembership{{UserID: 2, TeamID: 4}}
	resolver := authz.NewResolver(store)

	delete(store.profiles, 8)
	set, err := resolver.Resolve(context.Background(), 2)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(set.Permissions) != 0 {
		t.Fatalf("team link to deleted profile must grant nothing, got %v", set.Permissions)
	}
}
