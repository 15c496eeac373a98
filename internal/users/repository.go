package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulahq/aula/internal/authz"
	"github.com/aulahq/aula/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns one page of users plus the total count.
func (r *Repository) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	pagination := shared.NewPagination(page, perPage, 0)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, pagination, err
	}
	pagination = shared.NewPagination(page, perPage, total)

	rows, err := r.pool.Query(ctx,
		`SELECT id, email, name, COALESCE(group_id, 0), is_active, created_at, updated_at
		 FROM users ORDER BY id LIMIT $1 OFFSET $2`,
		pagination.PerPage, (pagination.Page-1)*pagination.PerPage)
	if err != nil {
		return nil, pagination, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.GroupID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, pagination, err
		}
		users = append(users, user)
	}
	return users, pagination, rows.Err()
}

// GetUser returns a single user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, COALESCE(group_id, 0), is_active, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.GroupID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// FindUser implements authz.UserDirectory for the principal loader.
func (r *Repository) FindUser(ctx context.Context, id int64) (authz.UserRecord, error) {
	user, err := r.GetUser(ctx, id)
	if err != nil {
		return authz.UserRecord{}, err
	}
	return authz.UserRecord{ID: user.ID, Name: user.Name, GroupID: user.GroupID}, nil
}

var _ authz.UserDirectory = (*Repository)(nil)
