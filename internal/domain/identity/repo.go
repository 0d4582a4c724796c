package identity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a new user and fails DuplicateEmail when the email is
	// already taken. This is the user-facing registration path.
	Create(ctx context.Context, u *User) error
	// CreateIfAbsent inserts the user unless the email already exists, in
	// which case it returns the existing row unchanged. The boolean reports
	// whether this call created the row. This is the provisioning path.
	CreateIfAbsent(ctx context.Context, u *User) (*User, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	LinkPatient(ctx context.Context, id, patientID uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}
