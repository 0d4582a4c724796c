package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// --- appointments ---

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const appointmentCols = `id, patient_id, doctor_id, scheduled_at, reason, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Reason,
		&a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "appointment not found")
		}
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Status = StatusScheduled
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *appointmentRepoPG) List(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	where := []string{}
	args := []interface{}{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		where = append(where, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM appointments%s ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d`,
		appointmentCols, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// --- prescriptions ---

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const prescriptionCols = `id, patient_id, doctor_id, medicines, notes, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	var medicines []byte
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &medicines, &p.Notes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "prescription not found")
		}
		return nil, err
	}
	if err := json.Unmarshal(medicines, &p.Medicines); err != nil {
		return nil, fmt.Errorf("decode medicines: %w", err)
	}
	return &p, nil
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	medicines, err := json.Marshal(p.Medicines)
	if err != nil {
		return fmt.Errorf("encode medicines: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (id, patient_id, doctor_id, medicines, notes)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.PatientID, p.DoctorID, medicines, p.Notes)
	return err
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE patient_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// --- lab reports ---

type labReportRepoPG struct{ pool *pgxpool.Pool }

func NewLabReportRepoPG(pool *pgxpool.Pool) LabReportRepository {
	return &labReportRepoPG{pool: pool}
}

func (r *labReportRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const labReportCols = `id, patient_id, uploaded_by, file_name, metadata, created_at`

func scanLabReport(row pgx.Row) (*LabReport, error) {
	var lr LabReport
	var metadata []byte
	err := row.Scan(&lr.ID, &lr.PatientID, &lr.UploadedBy, &lr.FileName, &metadata, &lr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "lab report not found")
		}
		return nil, err
	}
	if err := json.Unmarshal(metadata, &lr.Metadata); err != nil {
		return nil, fmt.Errorf("decode report metadata: %w", err)
	}
	return &lr, nil
}

func (r *labReportRepoPG) Create(ctx context.Context, lr *LabReport) error {
	lr.ID = uuid.New()
	metadata, err := json.Marshal(lr.Metadata)
	if err != nil {
		return fmt.Errorf("encode report metadata: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_reports (id, patient_id, uploaded_by, file_name, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		lr.ID, lr.PatientID, lr.UploadedBy, lr.FileName, metadata)
	return err
}

func (r *labReportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error) {
	return scanLabReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+labReportCols+` FROM lab_reports WHERE id = $1`, id))
}

func (r *labReportRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabReport, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_reports WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+labReportCols+` FROM lab_reports WHERE patient_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*LabReport
	for rows.Next() {
		lr, err := scanLabReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, lr)
	}
	return out, total, rows.Err()
}
