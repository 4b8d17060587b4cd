package profiles

import "time"

// Profile is a named permission bundle assignable to users and teams.
type Profile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PermissionLink ties a permission to a profile.
type PermissionLink struct {
	ProfileID    int64 `json:"profileId"`
	PermissionID int64 `json:"permissionId"`
}
