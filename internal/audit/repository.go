package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulahq/aula/internal/shared"
)

// Repository reads the audit trail written by shared.AuditLogger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRecords returns audit records newest first, with optional filters.
func (r *Repository) ListRecords(ctx context.Context, filters Filters) ([]Record, shared.Pagination, error) {
	where, args := buildFilters(filters)

	var total int
	countQuery := `SELECT COUNT(*) FROM audit_logs` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, err
	}

	pagination := shared.NewPagination(filters.Page, filters.PerPage, total)
	offset := (pagination.Page - 1) * pagination.PerPage
	query := fmt.Sprintf(
		`SELECT id, actor_id, action, entity, entity_id, meta, occurred_at FROM audit_logs%s
		 ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, pagination.PerPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var meta []byte
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Action, &rec.Entity, &rec.EntityID, &meta, &rec.OccurredAt); err != nil {
			return nil, shared.Pagination{}, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Meta); err != nil {
				return nil, shared.Pagination{}, err
			}
		}
		records = append(records, rec)
	}
	return records, pagination, rows.Err()
}

func buildFilters(filters Filters) (string, []any) {
	var clauses []string
	var args []any
	if filters.ActorID > 0 {
		args = append(args, filters.ActorID)
		clauses = append(clauses, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if filters.Entity != "" {
		args = append(args, filters.Entity)
		clauses = append(clauses, fmt.Sprintf("entity = $%d", len(args)))
	}
	if filters.Action != "" {
		args = append(args, filters.Action)
		clauses = append(clauses, fmt.Sprintf("action = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
