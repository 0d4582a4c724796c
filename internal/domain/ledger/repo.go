package ledger

import (
	"context"

	"github.com/google/uuid"
)

// AppointmentFilter narrows appointment listings. Zero values are ignored.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    AppointmentStatus
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpdateStatus moves the appointment from one status to another in a
	// single conditional statement. It reports false when the row was not in
	// the expected prior status, so concurrent transitions cannot both win.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (bool, error)
	List(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
}

type LabReportRepository interface {
	Create(ctx context.Context, r *LabReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabReport, int, error)
}
