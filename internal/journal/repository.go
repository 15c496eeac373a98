package journal

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulahq/aula/internal/shared"
)

// RepositoryPort defines data access methods for journal entries.
type RepositoryPort interface {
	ListAll(ctx context.Context) ([]Entry, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]Entry, error)
	GetEntry(ctx context.Context, id int64) (Entry, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `SELECT id, author_id, COALESCE(group_id, 0), title, body, created_at, updated_at FROM journal_entries`

// ListAll returns every journal entry, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, entryColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListByAuthor returns the author's journal entries, newest first.
func (r *Repository) ListByAuthor(ctx context.Context, authorID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, entryColumns+` WHERE author_id = $1 ORDER BY created_at DESC`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// GetEntry fetches one entry by id.
func (r *Repository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	var entry Entry
	err := r.pool.QueryRow(ctx, entryColumns+` WHERE id = $1`, id).
		Scan(&entry.ID, &entry.AuthorID, &entry.GroupID, &entry.Title, &entry.Body, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// CreateEntry inserts a new entry.
func (r *Repository) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO journal_entries (author_id, group_id, title, body, created_at, updated_at)
		 VALUES ($1, NULLIF($2, 0), $3, $4, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		entry.AuthorID, entry.GroupID, entry.Title, entry.Body,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.AuthorID, &entry.GroupID, &entry.Title, &entry.Body, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
