package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed access to the relationship data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// GetUserProfileID returns the user's direct profile id, nil when absent.
func (r *Repository) GetUserProfileID(ctx context.Context, userID int64) (*int64, error) {
	var profileID *int64
	err := r.pool.QueryRow(ctx, `SELECT profile_id FROM users WHERE id = $1`, userID).Scan(&profileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return profileID, nil
}

// ListUserTeams returns the team memberships of a user.
func (r *Repository) ListUserTeams(ctx context.Context, userID int64) ([]TeamMembership, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, team_id, role FROM user_teams WHERE user_id = $1 ORDER BY team_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var memberships []TeamMembership
	for rows.Next() {
		var m TeamMembership
		if err := rows.Scan(&m.UserID, &m.TeamID, &m.Role); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// ListTeamProfiles returns distinct profile ids linked to the given teams.
// Joining against profiles prunes links whose profile was deleted.
func (r *Repository) ListTeamProfiles(ctx context.Context, teamIDs []int64) ([]int64, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT tp.profile_id
		FROM team_profiles tp
		JOIN teams t ON t.id = tp.team_id
		JOIN profiles p ON p.id = tp.profile_id
		WHERE tp.team_id = ANY($1)
		ORDER BY tp.profile_id`, teamIDs)
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

// ListProfilePermissions returns distinct permissions linked to the given
// profiles. Rows are joined against profiles so links lingering after a
// profile delete resolve to nothing.
func (r *Repository) ListProfilePermissions(ctx context.Context, profileIDs []int64) ([]Permission, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT pe.id, pe.name, pe.slug, pe.category, pe.description, pe.created_at, pe.updated_at
		FROM profile_permissions pp
		JOIN profiles p ON p.id = pp.profile_id
		JOIN permissions pe ON pe.id = pp.permission_id
		WHERE pp.profile_id = ANY($1)
		ORDER BY pe.id`, profileIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// ListAllPermissions returns the whole catalog ordered by name.
func (r *Repository) ListAllPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, category, description, created_at, updated_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// GetPermissionByName fetches a catalog entry by its unique name.
func (r *Repository) GetPermissionByName(ctx context.Context, name string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug, category, description, created_at, updated_at FROM permissions WHERE name = $1`, name).
		Scan(&p.ID, &p.Name, &p.Slug, &p.Category, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

// CreatePermission inserts a catalog entry. A concurrent insert of the
// same name surfaces as ErrDuplicateLink so the Synchronizer can count
// the row as existing instead of failing the item.
func (r *Repository) CreatePermission(ctx context.Context, name, slug, category, description string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, slug, category, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, name, slug, category, description, created_at, updated_at`,
		name, slug, category, description).
		Scan(&p.ID, &p.Name, &p.Slug, &p.Category, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Permission{}, ErrDuplicateLink
		}
		return Permission{}, err
	}
	return p, nil
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Category, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
