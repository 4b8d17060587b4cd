package boards

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driftboard/driftboard/internal/shared"
)

// Repository provides PostgreSQL backed persistence for boards, columns
// and tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBoards returns the boards of a team.
func (r *Repository) ListBoards(ctx context.Context, teamID int64) ([]Board, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, public_id, team_id, name, created_at, updated_at FROM boards WHERE team_id = $1 ORDER BY name`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var boards []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.PublicID, &b.TeamID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// CreateBoard inserts a board with a fresh public id.
func (r *Repository) CreateBoard(ctx context.Context, teamID int64, name string) (Board, error) {
	var b Board
	err := r.pool.QueryRow(ctx, `
		INSERT INTO boards (public_id, team_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, public_id, team_id, name, created_at, updated_at`, uuid.New(), teamID, name).
		Scan(&b.ID, &b.PublicID, &b.TeamID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Board{}, err
	}
	return b, nil
}

// DeleteBoard removes a board and, through FK cascade, its columns and
// tasks.
func (r *Repository) DeleteBoard(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListColumns returns the ordered columns of a board.
func (r *Repository) ListColumns(ctx context.Context, boardID int64) ([]Column, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, board_id, name, position FROM board_columns WHERE board_id = $1 ORDER BY position`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.Position); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// CreateTask inserts a task at the end of a column.
func (r *Repository) CreateTask(ctx context.Context, columnID int64, title, body string, assigneeID *int64) (Task, error) {
	var t Task
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (public_id, column_id, title, body, assignee_id, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5,
			COALESCE((SELECT MAX(position) + 1 FROM tasks WHERE column_id = $2), 0),
			NOW(), NOW())
		RETURNING id, public_id, column_id, title, body, assignee_id, position, created_at, updated_at`,
		uuid.New(), columnID, title, body, assigneeID).
		Scan(&t.ID, &t.PublicID, &t.ColumnID, &t.Title, &t.Body, &t.AssigneeID, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// GetTask fetches one task by id.
func (r *Repository) GetTask(ctx context.Context, id int64) (Task, error) {
	var t Task
	err := r.pool.QueryRow(ctx, `SELECT id, public_id, column_id, title, body, assignee_id, position, created_at, updated_at FROM tasks WHERE id = $1`, id).
		Scan(&t.ID, &t.PublicID, &t.ColumnID, &t.Title, &t.Body, &t.AssigneeID, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, shared.ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}

// MoveTask repositions a task, possibly into another column.
func (r *Repository) MoveTask(ctx context.Context, id, columnID int64, position int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET column_id = $2, position = $3, updated_at = NOW() WHERE id = $1`, id, columnID, position)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AssignTask sets or clears the assignee.
func (r *Repository) AssignTask(ctx context.Context, id int64, assigneeID *int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET assignee_id = $2, updated_at = NOW() WHERE id = $1`, id, assigneeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
