package users

import "time"

// User represents a user account. ProfileID is the optional direct
// profile; team-mediated profiles are resolved separately.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ProfileID *int64    `json:"profileId,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
