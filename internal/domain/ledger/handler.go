package ledger

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Schedule, auth.Require(auth.ActionAppointmentCreate))
	api.GET("/appointments", h.ListAppointments, auth.Require(auth.ActionAppointmentRead))
	api.GET("/appointments/:id", h.GetAppointment, auth.Require(auth.ActionAppointmentRead))
	api.PUT("/appointments/:id/status", h.Transition, auth.Require(auth.ActionAppointmentTransition))

	api.POST("/prescriptions", h.IssuePrescription, auth.Require(auth.ActionPrescriptionCreate))
	api.GET("/prescriptions/:id", h.GetPrescription, auth.Require(auth.ActionPrescriptionRead))
	api.GET("/patients/:id/prescriptions", h.ListPrescriptions, auth.Require(auth.ActionPrescriptionRead))

	api.POST("/lab-reports", h.FileLabReport, auth.Require(auth.ActionLabReportCreate))
	api.GET("/lab-reports/:id", h.GetLabReport, auth.Require(auth.ActionLabReportRead))
	api.GET("/patients/:id/lab-reports", h.ListLabReports, auth.Require(auth.ActionLabReportRead))
}

// maskNotFound hides record existence from patient principals: a record they
// cannot see and a record that does not exist answer identically.
func maskNotFound(p *auth.Principal, err error) error {
	if p != nil && p.Role == auth.RolePatient && apperr.IsKind(err, apperr.KindNotFound) {
		return apperr.New(apperr.KindForbidden, "access denied")
	}
	return err
}

type scheduleRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      *string   `json:"reason"`
}

func (h *Handler) Schedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	// Doctors schedule for themselves only; staff and superadmin may name
	// any doctor.
	if p.Role == auth.RoleDoctor && req.DoctorID != p.UserID {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "doctors may only schedule their own appointments"))
	}
	a, err := h.svc.ScheduleAppointment(c.Request().Context(), req.PatientID, req.DoctorID, req.ScheduledAt, req.Reason)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, maskNotFound(p, err))
	}
	if !p.OwnsPatient(a.PatientID) {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "access denied"))
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	p := auth.PrincipalFromContext(c.Request().Context())

	var f AppointmentFilter
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid patient_id"))
		}
		f.PatientID = &id
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid doctor_id"))
		}
		f.DoctorID = &id
	}
	if v := c.QueryParam("status"); v != "" {
		f.Status = AppointmentStatus(v)
		if !f.Status.Valid() {
			return apperr.Respond(c, apperr.Newf(apperr.KindInvalidArgument, "unknown status %q", v))
		}
	}
	// Patient principals see their own appointments regardless of the
	// requested filter.
	if p.Role == auth.RolePatient {
		if p.PatientID == nil {
			return apperr.Respond(c, apperr.New(apperr.KindForbidden, "account has no linked patient record"))
		}
		f.PatientID = p.PatientID
	}

	items, total, err := h.svc.ListAppointments(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type transitionRequest struct {
	Status AppointmentStatus `json:"status"`
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	// Doctors transition only their own appointments, mirroring the
	// self-scope on creation.
	if p.Role == auth.RoleDoctor {
		a, err := h.svc.GetAppointment(c.Request().Context(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		if a.DoctorID != p.UserID {
			return apperr.Respond(c, apperr.New(apperr.KindForbidden, "doctors may only transition their own appointments"))
		}
	}
	a, err := h.svc.TransitionAppointment(c.Request().Context(), id, req.Status)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

type issuePrescriptionRequest struct {
	PatientID uuid.UUID      `json:"patient_id"`
	DoctorID  uuid.UUID      `json:"doctor_id"`
	Medicines []MedicineItem `json:"medicines"`
	Notes     *string        `json:"notes"`
}

func (h *Handler) IssuePrescription(c echo.Context) error {
	var req issuePrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	doctorID := req.DoctorID
	if doctorID == uuid.Nil {
		doctorID = p.UserID
	}
	if p.Role == auth.RoleDoctor && doctorID != p.UserID {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "doctors may only issue their own prescriptions"))
	}
	pr, err := h.svc.IssuePrescription(c.Request().Context(), req.PatientID, doctorID, req.Medicines, req.Notes)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, pr)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	pr, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, maskNotFound(p, err))
	}
	if !p.OwnsPatient(pr.PatientID) {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "access denied"))
	}
	return c.JSON(http.StatusOK, pr)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	if !p.OwnsPatient(patientID) {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "access denied"))
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPrescriptions(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type fileLabReportRequest struct {
	PatientID uuid.UUID      `json:"patient_id"`
	FileName  string         `json:"file_name"`
	Metadata  ReportMetadata `json:"metadata"`
}

func (h *Handler) FileLabReport(c echo.Context) error {
	var req fileLabReportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	lr, err := h.svc.FileLabReport(c.Request().Context(), req.PatientID, p.UserID, req.FileName, req.Metadata)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, lr)
}

func (h *Handler) GetLabReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	lr, err := h.svc.GetLabReport(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, maskNotFound(p, err))
	}
	if !p.OwnsPatient(lr.PatientID) {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "access denied"))
	}
	return c.JSON(http.StatusOK, lr)
}

func (h *Handler) ListLabReports(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	if !p.OwnsPatient(patientID) {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "access denied"))
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLabReports(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
