// Package events publishes clinic domain events to RabbitMQ. Publication is
// best-effort: a broker outage is logged and never fails the originating
// request, so downstream consumers (notifications, reporting) are decoupled
// from the write path.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Queue names. Durable; declared idempotently on every publish.
const (
	QueueAppointmentScheduled    = "appointment.scheduled"
	QueueAppointmentTransitioned = "appointment.transitioned"
	QueuePrescriptionIssued      = "prescription.issued"
	QueueLabReportFiled          = "labreport.filed"
	QueueBillCreated             = "bill.created"
	QueueStockAdjusted           = "stock.adjusted"
)

type AppointmentScheduled struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

type AppointmentTransitioned struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
}

type PrescriptionIssued struct {
	PrescriptionID uuid.UUID `json:"prescription_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	DoctorID       uuid.UUID `json:"doctor_id"`
	MedicineCount  int       `json:"medicine_count"`
}

type LabReportFiled struct {
	ReportID   uuid.UUID `json:"report_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	FileName   string    `json:"file_name"`
}

type BillCreated struct {
	BillID    uuid.UUID `json:"bill_id"`
	PatientID uuid.UUID `json:"patient_id"`
	Amount    int64     `json:"amount"`
}

type StockAdjusted struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Delta      int       `json:"delta"`
	NewStock   int       `json:"new_stock"`
}
