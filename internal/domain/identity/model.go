package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
)

// Status is a soft-deactivation flag; users are never deleted.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User maps to the users table. PatientID links a patient-role account to
// its patient record; it is nil for staff accounts.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         auth.Role  `db:"role" json:"role"`
	Name         string     `db:"name" json:"name"`
	Status       Status     `db:"status" json:"status"`
	PatientID    *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the account may authenticate or be referenced by
// new clinical events.
func (u *User) Active() bool {
	return u.Status == StatusActive
}
