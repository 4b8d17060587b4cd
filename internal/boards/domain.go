package boards

import (
	"time"

	"github.com/google/uuid"
)

// Board is a kanban board owned by a team.
type Board struct {
	ID        int64     `json:"id"`
	PublicID  uuid.UUID `json:"publicId"`
	TeamID    int64     `json:"teamId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Column is an ordered lane on a board.
type Column struct {
	ID       int64  `json:"id"`
	BoardID  int64  `json:"boardId"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Task is a card on a board column.
type Task struct {
	ID         int64     `json:"id"`
	PublicID   uuid.UUID `json:"publicId"`
	ColumnID   int64     `json:"columnId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AssigneeID *int64    `json:"assigneeId,omitempty"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
