package profiles

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driftboard/driftboard/internal/shared"
)

// Repository provides PostgreSQL backed persistence for profiles and
// their permission links.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListProfiles returns all profiles ordered by name.
func (r *Repository) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, color, is_default, created_at, updated_at FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GetProfile fetches one profile by id.
func (r *Repository) GetProfile(ctx context.Context, id int64) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `SELECT id, name, color, is_default, created_at, updated_at FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Color, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

// CreateProfile inserts a new profile.
func (r *Repository) CreateProfile(ctx context.Context, name, color string, isDefault bool) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (name, color, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, color, is_default, created_at, updated_at`, name, color, isDefault).
		Scan(&p.ID, &p.Name, &p.Color, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_profiles_name" {
			return Profile{}, shared.ErrDuplicate
		}
		return Profile{}, err
	}
	return p, nil
}

// UpdateProfile updates name, color and default flag.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, name, color string, isDefault bool) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		UPDATE profiles SET name = $2, color = $3, is_default = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, color, is_default, created_at, updated_at`, id, name, color, isDefault).
		Scan(&p.ID, &p.Name, &p.Color, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

// DeleteProfile removes a profile. Link rows referencing it are left in
// place; resolution prunes them as dangling references.
func (r *Repository) DeleteProfile(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// LinkPermission attaches a permission to a profile.
func (r *Repository) LinkPermission(ctx context.Context, profileID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO profile_permissions (profile_id, permission_id, created_at) VALUES ($1, $2, NOW())`, profileID, permissionID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_profile_permissions" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// UnlinkPermission detaches a permission from a profile.
func (r *Repository) UnlinkPermission(ctx context.Context, profileID, permissionID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profile_permissions WHERE profile_id = $1 AND permission_id = $2`, profileID, permissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListPermissionIDs returns the permission ids linked to a profile.
func (r *Repository) ListPermissionIDs(ctx context.Context, profileID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT permission_id FROM profile_permissions WHERE profile_id = $1 ORDER BY permission_id`, profileID)
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
