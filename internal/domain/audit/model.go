package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a single immutable audit log row. ActorID is nullable so entries
// outlive the identity that produced them.
type Entry struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	ActorID      *uuid.UUID        `db:"actor_id" json:"actor_id,omitempty"`
	Action       string            `db:"action" json:"action"`
	ResourceType string            `db:"resource_type" json:"resource_type"`
	ResourceID   *uuid.UUID        `db:"resource_id" json:"resource_id,omitempty"`
	Details      map[string]string `db:"details" json:"details,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`

	// Joined from staff_identity for display. Empty when the actor row is
	// gone or the entry was system generated.
	ActorName  string `db:"actor_name" json:"actor_name,omitempty"`
	ActorEmail string `db:"actor_email" json:"actor_email,omitempty"`
}

// QueryFilter narrows an audit log listing. Zero values mean "no filter".
type QueryFilter struct {
	Action       string
	ResourceType string
	// Text matches case-insensitively against actor name, actor email and
	// the serialized details.
	Text  string
	Limit int
}

// MaxQueryLimit caps how many entries a single listing returns.
const MaxQueryLimit = 500
