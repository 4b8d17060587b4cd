package authz

import (
	"context"
	"fmt"
)

// Invalidator is the synchronous hook fired by every mutation of the
// relationship data. Mutating handlers call it before returning; when
// eviction fails the whole request fails rather than leaving a stale
// grant behind. Eviction is an idempotent delete, so retries and
// concurrent invalidations are safe without locks.
type Invalidator struct {
	cache *Cache
}

// NewInvalidator constructs the hook over the cache layer.
func NewInvalidator(cache *Cache) *Invalidator {
	return &Invalidator{cache: cache}
}

// PrincipalChanged evicts one principal's cached resolution. Fired by
// mutations scoped to a single user: direct profile assignment, or a
// team membership change for that user.
func (i *Invalidator) PrincipalChanged(ctx context.Context, principalID int64) error {
	if err := i.cache.EvictPrincipal(ctx, principalID); err != nil {
		return fmt.Errorf("authz: evict principal %d: %w", principalID, err)
	}
	return nil
}

// ProfileChanged evicts every principal whose resolution was derived
// from the profile. Fired by ProfilePermission link changes and profile
// deletion.
func (i *Invalidator) ProfileChanged(ctx context.Context, profileID int64) error {
	if err := i.cache.EvictProfile(ctx, profileID); err != nil {
		return fmt.Errorf("authz: evict profile %d: %w", profileID, err)
	}
	return nil
}

// TeamChanged evicts every principal whose resolution was derived from
// the team. Fired by TeamProfile link changes and team deletion.
func (i *Invalidator) TeamChanged(ctx context.Context, teamID int64) error {
	if err := i.cache.EvictTeam(ctx, teamID); err != nil {
		return fmt.Errorf("authz: evict team %d: %w", teamID, err)
	}
	return nil
}
