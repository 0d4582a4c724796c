package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller of a request. PatientID is set only
// for patient-role users and links the account to its patient record.
type Principal struct {
	UserID    uuid.UUID
	Role      Role
	PatientID *uuid.UUID
}

// ContextWithPrincipal stores the principal in the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the principal, or nil when the request was
// never authenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// OwnsPatient reports whether the principal may read records belonging to
// patientID. Non-patient roles pass; a patient principal passes only for its
// own linked patient record.
func (p *Principal) OwnsPatient(patientID uuid.UUID) bool {
	if p.Role != RolePatient {
		return true
	}
	return p.PatientID != nil && *p.PatientID == patientID
}
