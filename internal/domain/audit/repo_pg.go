package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carechart/carechart/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *RepoPG) Insert(ctx context.Context, e *Entry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, action, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ActorID, e.Action, e.ResourceType, e.ResourceID, e.Details, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// buildQuery renders f into the log query. Action and resource type filter by
// exact equality; the text filter is a case-insensitive substring match over
// the actor's name, email, and the details JSON. Results are strictly
// newest-first and the limit is clamped to MaxQueryLimit.
func buildQuery(f QueryFilter) (string, []interface{}) {
	where := []string{}
	args := []interface{}{}
	idx := 1

	if f.Action != "" {
		where = append(where, fmt.Sprintf("a.action = $%d", idx))
		args = append(args, f.Action)
		idx++
	}
	if f.ResourceType != "" {
		where = append(where, fmt.Sprintf("a.resource_type = $%d", idx))
		args = append(args, f.ResourceType)
		idx++
	}
	if f.Text != "" {
		where = append(where, fmt.Sprintf(
			"(s.full_name ILIKE $%d OR s.email ILIKE $%d OR a.details::text ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+f.Text+"%")
		idx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	q := fmt.Sprintf(`
		SELECT a.id, a.actor_id, a.action, a.resource_type, a.resource_id, a.details, a.created_at,
		       COALESCE(s.full_name, ''), COALESCE(s.email, '')
		FROM audit_log a
		LEFT JOIN staff_identity s ON s.id = a.actor_id
		%s
		ORDER BY a.created_at DESC
		LIMIT $%d`, whereClause, idx)
	args = append(args, limit)

	return q, args
}

func (r *RepoPG) Query(ctx context.Context, f QueryFilter) ([]*Entry, error) {
	q, args := buildQuery(f)
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Details, &e.CreatedAt,
			&e.ActorName, &e.ActorEmail,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
