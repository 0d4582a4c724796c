package auth

import (
	"testing"

	"github.com/clinic/clinic/internal/platform/apperr"
)

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		parsed, err := ParseRole(string(r))
		if err != nil {
			t.Errorf("ParseRole(%s): %v", r, err)
		}
		if parsed != r {
			t.Errorf("ParseRole(%s) = %s", r, parsed)
		}
	}
}

func TestParseRole_Unknown(t *testing.T) {
	for _, s := range []string{"", "doctor", "admin", "Superadmin", "root"} {
		if _, err := ParseRole(s); !apperr.IsKind(err, apperr.KindInvalidRole) {
			t.Errorf("ParseRole(%q): expected invalid_role, got %v", s, err)
		}
	}
}

func TestDoctorCapable(t *testing.T) {
	capable := map[Role]bool{
		RoleSuperadmin: true,
		RoleDoctor:     true,
		RoleLab:        false,
		RolePharmacist: false,
		RoleAccountant: false,
		RoleStaff:      false,
		RolePatient:    false,
	}
	for role, want := range capable {
		if got := role.DoctorCapable(); got != want {
			t.Errorf("%s.DoctorCapable() = %v, want %v", role, got, want)
		}
	}
}

func TestLabCapable(t *testing.T) {
	if !RoleLab.LabCapable() || !RoleSuperadmin.LabCapable() {
		t.Error("lab and superadmin must be lab-capable")
	}
	if RoleDoctor.LabCapable() || RolePatient.LabCapable() {
		t.Error("doctor and patient must not be lab-capable")
	}
}
