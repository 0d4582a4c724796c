// Package ledger holds the clinical event records of a patient: appointments,
// prescriptions, and lab reports. Every record links a patient to a
// responsible staff member; the linkage is validated at creation and
// immutable afterwards. Records are never deleted, only status-transitioned,
// so the clinical history stays auditable.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the closed lifecycle of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is a member of the closed status set.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status change is legal. Only
// scheduled→completed and scheduled→cancelled are; completed and cancelled
// are terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	return s == StatusScheduled && (next == StatusCompleted || next == StatusCancelled)
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Reason      *string           `db:"reason" json:"reason,omitempty"`
	Status      AppointmentStatus `db:"status" json:"status"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// MedicineItem is one entry of a prescription's medicines list.
type MedicineItem struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Quantity int    `json:"quantity"`
}

// Prescription maps to the prescriptions table. The medicines list persists
// as an ordered JSONB document rather than a child table.
type Prescription struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	PatientID uuid.UUID      `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID      `db:"doctor_id" json:"doctor_id"`
	Medicines []MedicineItem `db:"medicines" json:"medicines"`
	Notes     *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// ReportMetadata describes the uploaded file backing a lab report. The file
// itself lives in an external store; the ledger keeps only the reference.
type ReportMetadata struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	Category     string `json:"category,omitempty"`
}

// LabReport maps to the lab_reports table.
type LabReport struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	PatientID  uuid.UUID      `db:"patient_id" json:"patient_id"`
	UploadedBy uuid.UUID      `db:"uploaded_by" json:"uploaded_by"`
	FileName   string         `db:"file_name" json:"file_name"`
	Metadata   ReportMetadata `db:"metadata" json:"metadata"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
