package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carechart/carechart/internal/platform/auth"
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

const identityCols = `id, email, full_name, department, created_at, updated_at`

func scanIdentity(row pgx.Row) (*Identity, error) {
	var s Identity
	err := row.Scan(&s.ID, &s.Email, &s.FullName, &s.Department, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	return scanIdentity(r.conn(ctx).QueryRow(ctx,
		`SELECT `+identityCols+` FROM staff_identity WHERE id = $1`, id))
}

func (r *RepoPG) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return scanIdentity(r.conn(ctx).QueryRow(ctx,
		`SELECT `+identityCols+` FROM staff_identity WHERE lower(email) = lower($1)`, email))
}

func (r *RepoPG) Upsert(ctx context.Context, id uuid.UUID, email, fullName string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff_identity (id, email, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    full_name = CASE WHEN EXCLUDED.full_name <> '' THEN EXCLUDED.full_name ELSE staff_identity.full_name END,
		    updated_at = NOW()`,
		id, email, fullName)
	if err != nil {
		return fmt.Errorf("upsert staff identity: %w", err)
	}
	return nil
}

func (r *RepoPG) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff_identity SET full_name = $2, department = $3, updated_at = NOW() WHERE id = $1`,
		id, upd.FullName, upd.Department)
	if err != nil {
		return fmt.Errorf("update staff profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepoPG) List(ctx context.Context) ([]*Member, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT s.id, s.email, s.full_name, s.department, s.created_at, s.updated_at,
		       COALESCE(array_agg(g.role ORDER BY g.role) FILTER (WHERE g.role IS NOT NULL), '{}')
		FROM staff_identity s
		LEFT JOIN staff_role_grant g ON g.staff_id = s.id
		GROUP BY s.id
		ORDER BY s.full_name, s.email`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		var roles []string
		if err := rows.Scan(&m.ID, &m.Email, &m.FullName, &m.Department, &m.CreatedAt, &m.UpdatedAt, &roles); err != nil {
			return nil, err
		}
		for _, s := range roles {
			role, err := auth.ParseRole(s)
			if err != nil {
				return nil, fmt.Errorf("stored grant: %w", err)
			}
			m.Roles = append(m.Roles, role)
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *RepoPG) RolesFor(ctx context.Context, staffID uuid.UUID) ([]auth.Role, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT role FROM staff_role_grant WHERE staff_id = $1 ORDER BY role`, staffID)
	if err != nil {
		return nil, fmt.Errorf("load role grants: %w", err)
	}
	defer rows.Close()

	var roles []auth.Role
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		role, err := auth.ParseRole(s)
		if err != nil {
			return nil, fmt.Errorf("stored grant: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RepoPG) ReplaceRole(ctx context.Context, staffID uuid.UUID, role auth.Role) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		c := r.conn(ctx)
		if _, err := c.Exec(ctx,
			`DELETE FROM staff_role_grant WHERE staff_id = $1`, staffID); err != nil {
			return fmt.Errorf("clear role grants: %w", err)
		}
		if role == auth.RoleNone {
			return nil
		}
		if _, err := c.Exec(ctx,
			`INSERT INTO staff_role_grant (staff_id, role) VALUES ($1, $2)`, staffID, role); err != nil {
			return fmt.Errorf("insert role grant: %w", err)
		}
		return nil
	})
}
