package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/events"
)

// PatientDirectory answers whether a patient record exists. Implemented by
// the patient component; the ledger never reads patient data directly.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// StaffDirectory resolves a user account to its role. A not_found error
// means no such account.
type StaffDirectory interface {
	RoleOf(ctx context.Context, id uuid.UUID) (auth.Role, error)
}

// scheduleGrace absorbs client/server clock skew when rejecting
// appointments scheduled in the past.
const scheduleGrace = 2 * time.Minute

type Service struct {
	appointments  AppointmentRepository
	prescriptions PrescriptionRepository
	labReports    LabReportRepository
	patients      PatientDirectory
	staff         StaffDirectory
	tx            db.Transactor
	publisher     *events.Publisher
	logger        zerolog.Logger

	now func() time.Time
}

func NewService(
	appointments AppointmentRepository,
	prescriptions PrescriptionRepository,
	labReports LabReportRepository,
	patients PatientDirectory,
	staff StaffDirectory,
	tx db.Transactor,
	publisher *events.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appointments:  appointments,
		prescriptions: prescriptions,
		labReports:    labReports,
		patients:      patients,
		staff:         staff,
		tx:            tx,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}
}

// checkPatient validates the patient reference inside the caller's
// transaction scope.
func (s *Service) checkPatient(ctx context.Context, patientID uuid.UUID) error {
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.KindUnknownPatient, "patient does not exist")
	}
	return nil
}

// ScheduleAppointment records a new appointment in the scheduled state. The
// patient and doctor references are validated in the same transaction as the
// insert, so a concurrent deletion cannot leave a dangling link.
func (s *Service) ScheduleAppointment(ctx context.Context, patientID, doctorID uuid.UUID, scheduledAt time.Time, reason *string) (*Appointment, error) {
	if scheduledAt.Before(s.now().Add(-scheduleGrace)) {
		return nil, apperr.New(apperr.KindInvalidArgument, "scheduled_at must not be in the past")
	}
	a := &Appointment{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: scheduledAt.UTC(),
		Reason:      reason,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.checkPatient(ctx, patientID); err != nil {
			return err
		}
		role, err := s.staff.RoleOf(ctx, doctorID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return apperr.New(apperr.KindUnknownDoctor, "doctor does not exist")
			}
			return err
		}
		if !role.DoctorCapable() {
			return apperr.Newf(apperr.KindInvalidRole, "user %s cannot act as a doctor", doctorID)
		}
		return s.appointments.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QueueAppointmentScheduled, events.AppointmentScheduled{
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		ScheduledAt:   a.ScheduledAt,
	})
	return a, nil
}

// TransitionAppointment moves an appointment to a new status. Completed and
// cancelled are terminal; any transition out of them fails, as does skipping
// backwards. The status update is conditional on the prior status, so two
// concurrent transitions cannot both succeed.
func (s *Service) TransitionAppointment(ctx context.Context, id uuid.UUID, next AppointmentStatus) (*Appointment, error) {
	if !next.Valid() {
		return nil, apperr.Newf(apperr.KindInvalidArgument, "unknown status %q", next)
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(next) {
		return nil, apperr.Newf(apperr.KindIllegalTransition, "cannot move appointment from %s to %s", a.Status, next)
	}
	ok, err := s.appointments.UpdateStatus(ctx, id, a.Status, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another transition.
		return nil, apperr.Newf(apperr.KindIllegalTransition, "appointment is no longer %s", a.Status)
	}

	s.publish(ctx, events.QueueAppointmentTransitioned, events.AppointmentTransitioned{
		AppointmentID: a.ID,
		From:          string(a.Status),
		To:            string(next),
	})
	a.Status = next
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, f, limit, offset)
}

// IssuePrescription records a prescription for a patient. The medicines list
// must be non-empty and every entry needs a name and a positive quantity;
// names are free text and deliberately not checked against the inventory.
func (s *Service) IssuePrescription(ctx context.Context, patientID, doctorID uuid.UUID, medicines []MedicineItem, notes *string) (*Prescription, error) {
	if len(medicines) == 0 {
		return nil, apperr.New(apperr.KindEmptyMedicineList, "prescription needs at least one medicine")
	}
	for i, m := range medicines {
		if m.Name == "" {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "medicine %d: name is required", i)
		}
		if m.Quantity <= 0 {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "medicine %d: quantity must be positive", i)
		}
	}
	p := &Prescription{
		PatientID: patientID,
		DoctorID:  doctorID,
		Medicines: medicines,
		Notes:     notes,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.checkPatient(ctx, patientID); err != nil {
			return err
		}
		role, err := s.staff.RoleOf(ctx, doctorID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return apperr.New(apperr.KindUnknownDoctor, "doctor does not exist")
			}
			return err
		}
		if !role.DoctorCapable() {
			return apperr.Newf(apperr.KindInvalidRole, "user %s cannot prescribe", doctorID)
		}
		return s.prescriptions.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QueuePrescriptionIssued, events.PrescriptionIssued{
		PrescriptionID: p.ID,
		PatientID:      p.PatientID,
		DoctorID:       p.DoctorID,
		MedicineCount:  len(p.Medicines),
	})
	return p, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

// FileLabReport records an uploaded lab report reference. The uploader must
// be an existing user with a lab-capable role.
func (s *Service) FileLabReport(ctx context.Context, patientID, uploadedBy uuid.UUID, fileName string, meta ReportMetadata) (*LabReport, error) {
	if fileName == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "file_name is required")
	}
	if meta.Size < 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "file size must not be negative")
	}
	lr := &LabReport{
		PatientID:  patientID,
		UploadedBy: uploadedBy,
		FileName:   fileName,
		Metadata:   meta,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.checkPatient(ctx, patientID); err != nil {
			return err
		}
		role, err := s.staff.RoleOf(ctx, uploadedBy)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return apperr.New(apperr.KindUnknownStaff, "uploading user does not exist")
			}
			return err
		}
		if !role.LabCapable() {
			return apperr.Newf(apperr.KindInvalidRole, "user %s cannot file lab reports", uploadedBy)
		}
		return s.labReports.Create(ctx, lr)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QueueLabReportFiled, events.LabReportFiled{
		ReportID:   lr.ID,
		PatientID:  lr.PatientID,
		UploadedBy: lr.UploadedBy,
		FileName:   lr.FileName,
	})
	return lr, nil
}

func (s *Service) GetLabReport(ctx context.Context, id uuid.UUID) (*LabReport, error) {
	return s.labReports.GetByID(ctx, id)
}

func (s *Service) ListLabReports(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabReport, int, error) {
	return s.labReports.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) publish(ctx context.Context, queue string, payload interface{}) {
	if !s.publisher.Enabled() {
		return
	}
	if err := s.publisher.Publish(ctx, queue, payload); err != nil {
		s.logger.Warn().Err(err).Str("queue", queue).Msg("event publish failed")
	}
}
