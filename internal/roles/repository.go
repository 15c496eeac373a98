package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulahq/aula/internal/platform/db"
	"github.com/aulahq/aula/internal/platform/httpx"
	"github.com/aulahq/aula/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `
	SELECT r.id, r.name, r.description, r.privilege_level,
	       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}'),
	       r.created_at, r.updated_at
	FROM roles r
	LEFT JOIN role_permissions rp ON rp.role_id = r.id
	LEFT JOIN permissions p ON p.id = rp.permission_id`

// ListRoles returns all roles with their permission names.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, roleColumns+`
		GROUP BY r.id ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches one role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	rows, err := r.pool.Query(ctx, roleColumns+`
		WHERE r.id = $1 GROUP BY r.id`, id)
	if err != nil {
		return Role{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Role{}, err
		}
		return Role{}, shared.ErrNotFound
	}
	return scanRole(rows)
}

// CreateRole inserts a role and attaches its permissions in one transaction.
func (r *Repository) CreateRole(ctx context.Context, name, description string, privilegeLevel int, permissions []string) (Role, error) {
	var roleID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, description, privilege_level, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id`,
			name, description, privilegeLevel).Scan(&roleID)
		if err != nil {
			return translateUnique(err)
		}
		return attachPermissions(ctx, tx, roleID, permissions)
	})
	if err != nil {
		return Role{}, err
	}
	return r.GetRole(ctx, roleID)
}

// UpdateRole updates a role and replaces its permission set.
func (r *Repository) UpdateRole(ctx context.Context, id int64, name, description string, privilegeLevel int, permissions []string) (Role, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE roles SET name = $2, description = $3, privilege_level = $4, updated_at = NOW() WHERE id = $1`,
			id, name, description, privilegeLevel)
		if err != nil {
			return translateUnique(err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		return attachPermissions(ctx, tx, id, permissions)
	})
	if err != nil {
		return Role{}, err
	}
	return r.GetRole(ctx, id)
}

// ListPermissions returns all declared permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func attachPermissions(ctx context.Context, tx pgx.Tx, roleID int64, permissions []string) error {
	if len(permissions) == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id, created_at)
		 SELECT $1, id, NOW() FROM permissions WHERE name = ANY($2)`,
		roleID, permissions)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(permissions) {
		return fmt.Errorf("%w: unknown permission name", httpx.ErrValidation)
	}
	return nil
}

func scanRole(rows pgx.Rows) (Role, error) {
	var role Role
	err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.PrivilegeLevel, &role.Permissions, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: role name already exists", httpx.ErrDuplicate)
	}
	return err
}
