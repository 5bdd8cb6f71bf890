package medrecord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("medical record not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// RecordType classifies a clinical entry.
type RecordType string

const (
	TypeDiagnosis  RecordType = "diagnosis"
	TypeTreatment  RecordType = "treatment"
	TypeMedication RecordType = "medication"
	TypeNote       RecordType = "note"
)

func ParseRecordType(s string) (RecordType, error) {
	switch RecordType(s) {
	case TypeDiagnosis, TypeTreatment, TypeMedication, TypeNote:
		return RecordType(s), nil
	}
	return "", fmt.Errorf("invalid record_type: %q", s)
}

// Record maps to the medical_record table. Rows are append-only: the
// application exposes no update or delete path, so an entry stands as
// written. Rows only disappear when their patient is deleted, via cascade.
type Record struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	RecordType  RecordType `db:"record_type" json:"record_type"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	RecordedBy  *uuid.UUID `db:"recorded_by" json:"recorded_by,omitempty"`
	RecordedAt  time.Time  `db:"recorded_at" json:"recorded_at"`

	// Joined from staff_identity for display.
	RecorderName string `db:"recorder_name" json:"recorder_name,omitempty"`
}

func (r *Record) Validate() error {
	if _, err := ParseRecordType(string(r.RecordType)); err != nil {
		return err
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Title) > 200 {
		return fmt.Errorf("title must be at most 200 characters")
	}
	if r.Description != nil && len(*r.Description) > 2000 {
		return fmt.Errorf("description must be at most 2000 characters")
	}
	return nil
}
