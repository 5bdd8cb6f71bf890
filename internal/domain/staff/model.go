package staff

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carechart/carechart/internal/platform/auth"
)

// ErrNotFound is returned when a staff identity does not exist.
var ErrNotFound = errors.New("staff identity not found")

// Identity maps to the staff_identity table. One row per authenticated staff
// account; role grants live in staff_role_grant and are joined on demand.
type Identity struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	FullName   string    `db:"full_name" json:"full_name"`
	Department *string   `db:"department" json:"department,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Member is a directory row: an identity together with its role grants.
type Member struct {
	Identity
	Roles []auth.Role `json:"roles"`
}

// IsStaff reports whether the member holds at least one grant. Members with
// no grants show in the directory as pending approval.
func (m *Member) IsStaff() bool {
	return len(m.Roles) > 0
}

// ProfileUpdate carries the fields a staff member may change on a profile.
type ProfileUpdate struct {
	FullName   string  `json:"full_name"`
	Department *string `json:"department,omitempty"`
}
