package assignment

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

const uniqueViolation = "23505"

func (r *RepoPG) Insert(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_assignment (id, patient_id, staff_id, assigned_by, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING assigned_at`,
		a.ID, a.PatientID, a.StaffID, a.AssignedBy, a.Notes)
	if err := row.Scan(&a.AssignedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateAssignment
		}
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	var a Assignment
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, staff_id, assigned_by, assigned_at, notes
		FROM patient_assignment WHERE id = $1`, id).
		Scan(&a.ID, &a.PatientID, &a.StaffID, &a.AssignedBy, &a.AssignedAt, &a.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *RepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_assignment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Assignment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.patient_id, a.staff_id, a.assigned_by, a.assigned_at, a.notes,
		       COALESCE(s.full_name, ''), COALESCE(s.email, ''),
		       COALESCE(array_agg(g.role ORDER BY g.role) FILTER (WHERE g.role IS NOT NULL), '{}')
		FROM patient_assignment a
		LEFT JOIN staff_identity s ON s.id = a.staff_id
		LEFT JOIN staff_role_grant g ON g.staff_id = a.staff_id
		WHERE a.patient_id = $1
		GROUP BY a.id, s.full_name, s.email
		ORDER BY a.assigned_at`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var items []*Assignment
	for rows.Next() {
		var a Assignment
		var roles []string
		if err := rows.Scan(&a.ID, &a.PatientID, &a.StaffID, &a.AssignedBy, &a.AssignedAt, &a.Notes,
			&a.StaffName, &a.StaffEmail, &roles); err != nil {
			return nil, err
		}
		for _, s := range roles {
			role, err := auth.ParseRole(s)
			if err != nil {
				return nil, fmt.Errorf("stored grant: %w", err)
			}
			a.StaffRoles = append(a.StaffRoles, role)
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

func (r *RepoPG) ListCandidates(ctx context.Context, patientID uuid.UUID) ([]*Candidate, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT s.id, s.full_name, s.email,
		       array_agg(g.role ORDER BY g.role)
		FROM staff_identity s
		JOIN staff_role_grant g ON g.staff_id = s.id
		WHERE s.id NOT IN (
			SELECT staff_id FROM patient_assignment WHERE patient_id = $1
		)
		GROUP BY s.id
		ORDER BY s.full_name, s.email`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var items []*Candidate
	for rows.Next() {
		var c Candidate
		var roles []string
		if err := rows.Scan(&c.StaffID, &c.FullName, &c.Email, &roles); err != nil {
			return nil, err
		}
		for _, s := range roles {
			role, err := auth.ParseRole(s)
			if err != nil {
				return nil, fmt.Errorf("stored grant: %w", err)
			}
			c.Roles = append(c.Roles, role)
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}
