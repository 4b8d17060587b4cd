package authz

import "time"

// Permission represents an atomic capability gating one protected operation.
type Permission struct {
	ID          int64
	Name        string
	Slug        string
	Category    string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Profile is a named, reusable bundle of permissions. A user may hold at
// most one profile directly; teams may hold any number.
type Profile struct {
	ID        int64
	Name      string
	Color     string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Team groups users that collectively hold profiles.
type Team struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamMembership links a user to a team.
type TeamMembership struct {
	UserID int64
	TeamID int64
	Role   string
}

// ResolvedSet is the effective permission set of a principal for one
// snapshot of the relationship data. It is produced by the Resolver,
// cached, and never mutated in place.
type ResolvedSet struct {
	PrincipalID int64    `json:"principalId"`
	Permissions []string `json:"permissions"`
	Slugs       []string `json:"slugs"`
	Categories  []string `json:"categories"`
	ProfileID   *int64   `json:"profileId,omitempty"`
	TeamIDs     []int64  `json:"teamIds,omitempty"`

	// ProfileIDs lists every profile that contributed to the set, direct
	// and team-mediated. The cache records them in reverse indexes so a
	// profile mutation can evict exactly the principals it touches.
	ProfileIDs []int64 `json:"profileIds,omitempty"`
}

// Has reports whether the set contains the permission identified by name
// or canonical slug.
func (s ResolvedSet) Has(name string) bool {
	want := Slug(name)
	for _, sl := range s.Slugs {
		if sl == want {
			return true
		}
	}
	return false
}

// Capabilities summarises the CRUD-style probes for one resource.
type Capabilities struct {
	CanCreate bool `json:"canCreate"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
	CanView   bool `json:"canView"`
}

// ProtectedOperation declares one operation the application exposes and
// the permission gating it. Feature packages contribute these to the
// Registry from their route declarations.
type ProtectedOperation struct {
	Name        string
	Category    string
	Description string
}

// SyncFailure records a single catalog insertion that failed during a
// sync run. Failures never abort the batch.
type SyncFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// SyncReport is the structured diff between the declared protected
// operations and the permission catalog after a sync run.
type SyncReport struct {
	DetectedFunctions    int           `json:"detectedFunctions"`
	GeneratedPermissions int           `json:"generatedPermissions"`
	ExistingPermissions  int           `json:"existingPermissions"`
	OrphanedPermissions  []string      `json:"orphanedPermissions,omitempty"`
	Categories           []string      `json:"categories"`
	Failures             []SyncFailure `json:"failures,omitempty"`
	RanAt                time.Time     `json:"ranAt"`
}
