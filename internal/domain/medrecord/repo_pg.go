package medrecord

import (
	"context"
	"fmt"

	"github.com/google/uuid"
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

func (r *RepoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_record (id, patient_id, record_type, title, description, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING recorded_at`,
		rec.ID, rec.PatientID, rec.RecordType, rec.Title, rec.Description, rec.RecordedBy)
	if err := row.Scan(&rec.RecordedAt); err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT m.id, m.patient_id, m.record_type, m.title, m.description, m.recorded_by, m.recorded_at,
		       COALESCE(s.full_name, '')
		FROM medical_record m
		LEFT JOIN staff_identity s ON s.id = m.recorded_by
		WHERE m.patient_id = $1
		ORDER BY m.recorded_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.RecordType, &rec.Title,
			&rec.Description, &rec.RecordedBy, &rec.RecordedAt, &rec.RecorderName); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
