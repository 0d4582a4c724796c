package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Action names an operation the policy table can gate.
type Action string

const (
	ActionUserManage            Action = "user.manage"
	ActionPatientCreate         Action = "patient.create"
	ActionPatientRead           Action = "patient.read"
	ActionPatientUpdate         Action = "patient.update"
	ActionAppointmentCreate     Action = "appointment.create"
	ActionAppointmentRead       Action = "appointment.read"
	ActionAppointmentTransition Action = "appointment.transition"
	ActionPrescriptionCreate    Action = "prescription.create"
	ActionPrescriptionRead      Action = "prescription.read"
	ActionLabReportCreate       Action = "labreport.create"
	ActionLabReportRead         Action = "labreport.read"
	ActionMedicineManage        Action = "medicine.manage"
	ActionMedicineRead          Action = "medicine.read"
	ActionMedicineAdjust        Action = "medicine.adjust"
	ActionBillCreate            Action = "bill.create"
	ActionBillRead              Action = "bill.read"
)

// policy is the exhaustive role-to-action table. Superadmin is handled as a
// wildcard in Allowed rather than enumerated here. Patient-role reads are
// additionally ownership-scoped by handlers.
var policy = map[Role]map[Action]bool{
	RoleDoctor: {
		ActionAppointmentCreate:     true,
		ActionAppointmentRead:       true,
		ActionAppointmentTransition: true,
		ActionPrescriptionCreate:    true,
		ActionPrescriptionRead:      true,
		ActionPatientRead:           true,
	},
	RoleLab: {
		ActionLabReportCreate: true,
		ActionLabReportRead:   true,
		ActionPatientRead:     true,
	},
	RolePharmacist: {
		ActionMedicineRead:     true,
		ActionMedicineAdjust:   true,
		ActionPrescriptionRead: true,
	},
	RoleAccountant: {
		ActionBillCreate: true,
		ActionBillRead:   true,
	},
	RoleStaff: {
		ActionPatientCreate:     true,
		ActionPatientRead:       true,
		ActionPatientUpdate:     true,
		ActionAppointmentCreate: true,
		ActionAppointmentRead:   true,
	},
	RolePatient: {
		ActionAppointmentRead:  true,
		ActionPrescriptionRead: true,
		ActionLabReportRead:    true,
		ActionBillRead:         true,
	},
}

// Allowed reports whether the role may perform the action.
func Allowed(role Role, action Action) bool {
	if role == RoleSuperadmin {
		return true
	}
	return policy[role][action]
}

// Require returns middleware enforcing the policy table for one action. A
// request without a principal fails Unauthenticated; a principal whose role
// does not permit the action fails Forbidden.
func Require(action Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil {
				return apperr.Respond(c, apperr.New(apperr.KindUnauthenticated, "no authenticated principal"))
			}
			if !Allowed(p.Role, action) {
				return apperr.Respond(c, apperr.Newf(apperr.KindForbidden, "role %s may not perform %s", p.Role, action))
			}
			return next(c)
		}
	}
}
