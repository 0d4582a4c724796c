package patient

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. Metadata is an opaque structured
// document (age, gender, allergies, ...) the core stores and returns without
// interpreting; only well-formedness is enforced.
type Patient struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Phone     *string         `db:"phone" json:"phone,omitempty"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
