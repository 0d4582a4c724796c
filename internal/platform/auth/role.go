// Package auth implements the authorization gate: a closed role enumeration,
// a policy table mapping roles to permitted actions, and the echo middleware
// that turns bearer tokens into request principals.
package auth

import (
	"github.com/clinic/clinic/internal/platform/apperr"
)

// Role is a closed enumeration. Unknown strings never become roles; parsing
// rejects them so a typo cannot grant or deny the wrong privileges.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleDoctor     Role = "admin_doctor"
	RoleLab        Role = "admin_lab"
	RolePharmacist Role = "admin_pharmacist"
	RoleAccountant Role = "admin_accountant"
	RoleStaff      Role = "staff"
	RolePatient    Role = "patient"
)

// AllRoles lists every valid role. The policy table is checked against this
// set in tests so a new role cannot be added without a policy row.
var AllRoles = []Role{
	RoleSuperadmin, RoleDoctor, RoleLab, RolePharmacist,
	RoleAccountant, RoleStaff, RolePatient,
}

// ParseRole converts a string into a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", apperr.Newf(apperr.KindInvalidRole, "unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleDoctor, RoleLab, RolePharmacist,
		RoleAccountant, RoleStaff, RolePatient:
		return true
	}
	return false
}

// DoctorCapable reports whether r may act as the responsible doctor on an
// appointment or prescription.
func (r Role) DoctorCapable() bool {
	return r == RoleDoctor || r == RoleSuperadmin
}

// LabCapable reports whether r may file lab reports.
func (r Role) LabCapable() bool {
	return r == RoleLab || r == RoleSuperadmin
}
