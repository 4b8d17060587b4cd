package teams

import "time"

// Team groups users that collectively hold profiles.
type Team struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Member is a user's membership in a team.
type Member struct {
	UserID int64  `json:"userId"`
	TeamID int64  `json:"teamId"`
	Role   string `json:"role"`
}
