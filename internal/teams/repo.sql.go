package teams

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driftboard/driftboard/internal/shared"
)

// Repository provides PostgreSQL backed persistence for teams, their
// profile links and their memberships.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTeams returns all teams ordered by name.
func (r *Repository) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// GetTeam fetches one team by id.
func (r *Repository) GetTeam(ctx context.Context, id int64) (Team, error) {
	var t Team
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, shared.ErrNotFound
		}
		return Team{}, err
	}
	return t, nil
}

// CreateTeam inserts a new team.
func (r *Repository) CreateTeam(ctx context.Context, name, description string) (Team, error) {
	var t Team
	err := r.pool.QueryRow(ctx, `
		INSERT INTO teams (name, description, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, name, description, created_at, updated_at`, name, description).
		Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Team{}, shared.ErrDuplicate
		}
		return Team{}, err
	}
	return t, nil
}

// UpdateTeam updates name and description.
func (r *Repository) UpdateTeam(ctx context.Context, id int64, name, description string) (Team, error) {
	var t Team
	err := r.pool.QueryRow(ctx, `
		UPDATE teams SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, created_at, updated_at`, id, name, description).
		Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, shared.ErrNotFound
		}
		return Team{}, err
	}
	return t, nil
}

// DeleteTeam removes a team. Link rows are left behind and pruned at
// resolution time.
func (r *Repository) DeleteTeam(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// LinkProfile attaches a profile to a team.
func (r *Repository) LinkProfile(ctx context.Context, teamID, profileID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO team_profiles (team_id, profile_id, created_at) VALUES ($1, $2, NOW())`, teamID, profileID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// UnlinkProfile detaches a profile from a team.
func (r *Repository) UnlinkProfile(ctx context.Context, teamID, profileID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM team_profiles WHERE team_id = $1 AND profile_id = $2`, teamID, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddMember inserts a user membership with the given role.
func (r *Repository) AddMember(ctx context.Context, teamID, userID int64, role string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_teams (user_id, team_id, role, created_at) VALUES ($1, $2, $3, NOW())`, userID, teamID, role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// RemoveMember deletes a membership.
func (r *Repository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_teams WHERE user_id = $1 AND team_id = $2`, userID, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMembers returns the memberships of a team.
func (r *Repository) ListMembers(ctx context.Context, teamID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, team_id, role FROM user_teams WHERE team_id = $1 ORDER BY user_id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.TeamID, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListProfileIDs returns the profile ids linked to a team.
func (r *Repository) ListProfileIDs(ctx context.Context, teamID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT profile_id FROM team_profiles WHERE team_id = $1 ORDER BY profile_id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
