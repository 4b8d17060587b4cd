package authz

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Resolver computes a principal's effective permission set from the
// relationship data: the union of the permissions reachable through the
// direct profile and through every profile linked to the user's teams.
//
// The resolver never fails on missing or broken relationship rows; a
// principal with no reachable permissions resolves to the empty set.
// Only store I/O errors propagate.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve produces the effective permission set for one principal. The
// output is deterministic for a fixed snapshot of relationship data:
// every slice is sorted and deduplicated.
func (r *Resolver) Resolve(ctx context.Context, principalID int64) (ResolvedSet, error) {
	var (
		directProfile *int64
		memberships   []TeamMembership
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		directProfile, err = r.store.GetUserProfileID(gctx, principalID)
		return err
	})
	g.Go(func() error {
		var err error
		memberships, err = r.store.ListUserTeams(gctx, principalID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ResolvedSet{}, err
	}

	teamIDs := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		teamIDs = append(teamIDs, m.TeamID)
	}

	teamProfiles, err := r.store.ListTeamProfiles(ctx, teamIDs)
	if err != nil {
		return ResolvedSet{}, err
	}

	profileIDs := unionIDs(directProfile, teamProfiles)
	perms, err := r.store.ListProfilePermissions(ctx, profileIDs)
	if err != nil {
		return ResolvedSet{}, err
	}

	set := ResolvedSet{
		PrincipalID: principalID,
		Permissions: make([]string, 0, len(perms)),
		Slugs:       make([]string, 0, len(perms)),
		Categories:  []string{},
		ProfileID:   directProfile,
		TeamIDs:     teamIDs,
		ProfileIDs:  profileIDs,
	}

	seen := make(map[int64]struct{}, len(perms))
	categories := make(map[string]struct{})
	for _, p := range perms {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		set.Permissions = append(set.Permissions, p.Name)
		slug := p.Slug
		if slug == "" {
			slug = Slug(p.Name)
		}
		set.Slugs = append(set.Slugs, slug)
		if p.Category != "" {
			categories[p.Category] = struct{}{}
		}
	}
	for c := range categories {
		set.Categories = append(set.Categories, c)
	}

	sort.Strings(set.Permissions)
	sort.Strings(set.Slugs)
	sort.Strings(set.Categories)
	return set, nil
}

// unionIDs merges the optional direct profile with the team profiles,
// deduplicated and sorted.
func unionIDs(direct *int64, teamProfiles []int64) []int64 {
	seen := make(map[int64]struct{}, len(teamProfiles)+1)
	if direct != nil {
		seen[*direct] = struct{}{}
	}
	for _, id := range teamProfiles {
		seen[id] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
