package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

// -- Mocks --

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Status = StatusScheduled
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (bool, error) {
	a, ok := m.appointments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (m *mockAppointmentRepo) List(_ context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type mockPrescriptionRepo struct {
	prescriptions map[uuid.UUID]*Prescription
}

func newMockPrescriptionRepo() *mockPrescriptionRepo {
	return &mockPrescriptionRepo{prescriptions: make(map[uuid.UUID]*Prescription)}
}

func (m *mockPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.prescriptions[p.ID] = &cp
	return nil
}

func (m *mockPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "prescription not found")
	}
	return p, nil
}

func (m *mockPrescriptionRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.prescriptions {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

type mockLabReportRepo struct {
	reports map[uuid.UUID]*LabReport
}

func newMockLabReportRepo() *mockLabReportRepo {
	return &mockLabReportRepo{reports: make(map[uuid.UUID]*LabReport)}
}

func (m *mockLabReportRepo) Create(_ context.Context, r *LabReport) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockLabReportRepo) GetByID(_ context.Context, id uuid.UUID) (*LabReport, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "lab report not found")
	}
	return r, nil
}

func (m *mockLabReportRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*LabReport, int, error) {
	var out []*LabReport
	for _, r := range m.reports {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

type mockPatientDir struct {
	ids map[uuid.UUID]bool
}

func (m *mockPatientDir) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.ids[id], nil
}

type mockStaffDir struct {
	roles map[uuid.UUID]auth.Role
}

func (m *mockStaffDir) RoleOf(_ context.Context, id uuid.UUID) (auth.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return "", apperr.New(apperr.KindNotFound, "user not found")
	}
	return r, nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// -- Fixture --

type fixture struct {
	svc       *Service
	patientID uuid.UUID
	doctorID  uuid.UUID
	labID     uuid.UUID
	staffID   uuid.UUID
	appts     *mockAppointmentRepo
}

func newFixture() *fixture {
	f := &fixture{
		patientID: uuid.New(),
		doctorID:  uuid.New(),
		labID:     uuid.New(),
		staffID:   uuid.New(),
		appts:     newMockAppointmentRepo(),
	}
	patients := &mockPatientDir{ids: map[uuid.UUID]bool{f.patientID: true}}
	staff := &mockStaffDir{roles: map[uuid.UUID]auth.Role{
		f.doctorID: auth.RoleDoctor,
		f.labID:    auth.RoleLab,
		f.staffID:  auth.RoleStaff,
	}}
	f.svc = NewService(f.appts, newMockPrescriptionRepo(), newMockLabReportRepo(),
		patients, staff, passTx{}, nil, zerolog.Nop())
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) futureSlot() time.Time {
	return f.svc.now().Add(24 * time.Hour)
}

// -- Appointments --

func TestScheduleAppointment(t *testing.T) {
	f := newFixture()
	a, err := f.svc.ScheduleAppointment(context.Background(), f.patientID, f.doctorID, f.futureSlot(), nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Fatal("expected assigned id")
	}
	if a.Status != StatusScheduled {
		t.Fatalf("status = %s, want scheduled", a.Status)
	}
}

func TestScheduleAppointmentUnknownPatient(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ScheduleAppointment(context.Background(), uuid.New(), f.doctorID, f.futureSlot(), nil)
	if !apperr.IsKind(err, apperr.KindUnknownPatient) {
		t.Fatalf("kind = %s, want unknown_patient", apperr.KindOf(err))
	}
}

func TestScheduleAppointmentUnknownDoctor(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ScheduleAppointment(context.Background(), f.patientID, uuid.New(), f.futureSlot(), nil)
	if !apperr.IsKind(err, apperr.KindUnknownDoctor) {
		t.Fatalf("kind = %s, want unknown_doctor", apperr.KindOf(err))
	}
}

func TestScheduleAppointmentRejectsNonDoctor(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ScheduleAppointment(context.Background(), f.patientID, f.labID, f.futureSlot(), nil)
	if !apperr.IsKind(err, apperr.KindInvalidRole) {
		t.Fatalf("kind = %s, want invalid_role", apperr.KindOf(err))
	}
}

func TestScheduleAppointmentRejectsPast(t *testing.T) {
	f := newFixture()
	past := f.svc.now().Add(-time.Hour)
	_, err := f.svc.ScheduleAppointment(context.Background(), f.patientID, f.doctorID, past, nil)
	if !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Fatalf("kind = %s, want invalid_argument", apperr.KindOf(err))
	}
}

func TestTransitionAppointmentLifecycle(t *testing.T) {
	f := newFixture()
	a, err := f.svc.ScheduleAppointment(context.Background(), f.patientID, f.doctorID, f.futureSlot(), nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	got, err := f.svc.TransitionAppointment(context.Background(), a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}

	// Completed is terminal: neither back to scheduled nor on to cancelled.
	if _, err := f.svc.TransitionAppointment(context.Background(), a.ID, StatusScheduled); !apperr.IsKind(err, apperr.KindIllegalTransition) {
		t.Fatalf("kind = %s, want illegal_transition", apperr.KindOf(err))
	}
	if _, err := f.svc.TransitionAppointment(context.Background(), a.ID, StatusCancelled); !apperr.IsKind(err, apperr.KindIllegalTransition) {
		t.Fatalf("kind = %s, want illegal_transition", apperr.KindOf(err))
	}
}

func TestTransitionAppointmentCancel(t *testing.T) {
	f := newFixture()
	a, _ := f.svc.ScheduleAppointment(context.Background(), f.patientID, f.doctorID, f.futureSlot(), nil)
	got, err := f.svc.TransitionAppointment(context.Background(), a.ID, StatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
}

func TestTransitionAppointmentUnknownStatus(t *testing.T) {
	f := newFixture()
	a, _ := f.svc.ScheduleAppointment(context.Background(), f.patientID, f.doctorID, f.futureSlot(), nil)
	if _, err := f.svc.TransitionAppointment(context.Background(), a.ID, "archived"); !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Fatalf("kind = %s, want invalid_argument", apperr.KindOf(err))
	}
}

func TestTransitionAppointmentLostRace(t *testing.T) {
	f := newFixture()
	a, _ := f.svc.ScheduleAppointment(context.Background(), f.patientID, f.doctorID, f.futureSlot(), nil)
	// Another caller completes it between the read and the conditional update.
	f.appts.appointments[a.ID].Status = StatusCancelled
	_, err := f.svc.TransitionAppointment(context.Background(), a.ID, StatusCompleted)
	if !apperr.IsKind(err, apperr.KindIllegalTransition) {
		t.Fatalf("kind = %s, want illegal_transition", apperr.KindOf(err))
	}
}

// -- Prescriptions --

func TestIssuePrescription(t *testing.T) {
	f := newFixture()
	meds := []MedicineItem{
		{Name: "Amoxicillin", Dosage: "500mg twice daily", Quantity: 14},
		{Name: "Ibuprofen", Dosage: "as needed", Quantity: 10},
	}
	p, err := f.svc.IssuePrescription(context.Background(), f.patientID, f.doctorID, meds, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(p.Medicines) != 2 {
		t.Fatalf("medicines = %d, want 2", len(p.Medicines))
	}
}

func TestIssuePrescriptionEmptyList(t *testing.T) {
	f := newFixture()
	_, err := f.svc.IssuePrescription(context.Background(), f.patientID, f.doctorID, nil, nil)
	if !apperr.IsKind(err, apperr.KindEmptyMedicineList) {
		t.Fatalf("kind = %s, want empty_medicine_list", apperr.KindOf(err))
	}
}

func TestIssuePrescriptionNonPositiveQuantity(t *testing.T) {
	f := newFixture()
	meds := []MedicineItem{{Name: "Amoxicillin", Quantity: 0}}
	_, err := f.svc.IssuePrescription(context.Background(), f.patientID, f.doctorID, meds, nil)
	if !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Fatalf("kind = %s, want invalid_argument", apperr.KindOf(err))
	}
}

func TestIssuePrescriptionRejectsNonDoctor(t *testing.T) {
	f := newFixture()
	meds := []MedicineItem{{Name: "Amoxicillin", Quantity: 1}}
	_, err := f.svc.IssuePrescription(context.Background(), f.patientID, f.staffID, meds, nil)
	if !apperr.IsKind(err, apperr.KindInvalidRole) {
		t.Fatalf("kind = %s, want invalid_role", apperr.KindOf(err))
	}
}

// -- Lab reports --

func TestFileLabReport(t *testing.T) {
	f := newFixture()
	meta := ReportMetadata{OriginalName: "cbc.pdf", MimeType: "application/pdf", Size: 52341}
	lr, err := f.svc.FileLabReport(context.Background(), f.patientID, f.labID, "cbc.pdf", meta)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if lr.Metadata.MimeType != "application/pdf" {
		t.Fatalf("mime = %s", lr.Metadata.MimeType)
	}
}

func TestFileLabReportRequiresFileName(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FileLabReport(context.Background(), f.patientID, f.labID, "", ReportMetadata{})
	if !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Fatalf("kind = %s, want invalid_argument", apperr.KindOf(err))
	}
}

func TestFileLabReportRejectsNegativeSize(t *testing.T) {
	f := newFixture()
	meta := ReportMetadata{OriginalName: "cbc.pdf", Size: -1}
	_, err := f.svc.FileLabReport(context.Background(), f.patientID, f.labID, "cbc.pdf", meta)
	if !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Fatalf("kind = %s, want invalid_argument", apperr.KindOf(err))
	}
}

func TestFileLabReportUnknownStaff(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FileLabReport(context.Background(), f.patientID, uuid.New(), "cbc.pdf", ReportMetadata{})
	if !apperr.IsKind(err, apperr.KindUnknownStaff) {
		t.Fatalf("kind = %s, want unknown_staff", apperr.KindOf(err))
	}
}

func TestFileLabReportRejectsNonLabRole(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FileLabReport(context.Background(), f.patientID, f.doctorID, "cbc.pdf", ReportMetadata{})
	if !apperr.IsKind(err, apperr.KindInvalidRole) {
		t.Fatalf("kind = %s, want invalid_role", apperr.KindOf(err))
	}
}
