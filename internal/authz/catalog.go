package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulahq/aula/internal/platform/db"
	"github.com/aulahq/aula/internal/shared"
)

// Catalog is the role/permission data store consumed by the core.
type Catalog interface {
	// RolesForUser returns the roles currently assigned to the user, each
	// annotated with privilege level and permission names.
	RolesForUser(ctx context.Context, userID int64) ([]Role, error)
	// PrivilegeLevel returns the privilege level of a role, or
	// shared.ErrNotFound when the role does not exist.
	PrivilegeLevel(ctx context.Context, roleID int64) (int, error)
	// ReplaceRolesForUser atomically replaces all of the user's role
	// assignments with the given set. Concurrent readers observe either the
	// old or the new set, never a mix.
	ReplaceRolesForUser(ctx context.Context, userID int64, roleIDs []int64) error
}

// PGCatalog implements Catalog on PostgreSQL.
type PGCatalog struct {
	pool *pgxpool.Pool
}

// NewPGCatalog constructs a PostgreSQL backed catalog.
func NewPGCatalog(pool *pgxpool.Pool) *PGCatalog {
	return &PGCatalog{pool: pool}
}

// RolesForUser returns the user's assigned roles in assignment order.
func (c *PGCatalog) RolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	const query = `
		SELECT r.id, r.name, r.privilege_level,
		       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}')
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		GROUP BY r.id, r.name, r.privilege_level, ur.created_at
		ORDER BY ur.created_at, r.id`
	rows, err := c.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.PrivilegeLevel, &role.Permissions); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// PrivilegeLevel fetches the privilege level of a single role.
func (c *PGCatalog) PrivilegeLevel(ctx context.Context, roleID int64) (int, error) {
	var level int
	err := c.pool.QueryRow(ctx, `SELECT privilege_level FROM roles WHERE id = $1`, roleID).Scan(&level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return level, nil
}

// ReplaceRolesForUser swaps the user's assignments inside one transaction.
// RepeatableRead isolation keeps the delete and inserts invisible to readers
// until commit; a cancelled context rolls the whole replacement back.
func (c *PGCatalog) ReplaceRolesForUser(ctx context.Context, userID int64, roleIDs []int64) error {
	return db.WithTx(ctx, c.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role_id, created_at) VALUES ($1, $2, NOW())`,
				userID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ Catalog = (*PGCatalog)(nil)
