package patient

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

// Patient maps to the patient table.
type Patient struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender      string    `db:"gender" json:"gender"`

	Email   *string `db:"email" json:"email,omitempty"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`
	City    *string `db:"city" json:"city,omitempty"`
	State   *string `db:"state" json:"state,omitempty"`
	ZipCode *string `db:"zip_code" json:"zip_code,omitempty"`

	EmergencyContactName         *string `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone        *string `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelationship *string `db:"emergency_contact_relationship" json:"emergency_contact_relationship,omitempty"`

	CreatedBy *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName is used for audit details and display.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true, "unknown": true,
}

// Validate checks the demographic fields on intake.
func (p *Patient) Validate() error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if len(p.FirstName) > 100 {
		return fmt.Errorf("first_name must be at most 100 characters")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if len(p.LastName) > 100 {
		return fmt.Errorf("last_name must be at most 100 characters")
	}
	if p.DateOfBirth.IsZero() {
		return fmt.Errorf("date_of_birth is required")
	}
	if p.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date_of_birth must be in the past")
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %q", p.Gender)
	}
	return nil
}
