package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/events"
)

// PatientDirectory answers whether a patient record exists.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// StockDispenser removes dispensed units from the inventory. It must honor a
// transaction already present in the context, so a bill and its stock
// decrements commit or roll back together.
type StockDispenser interface {
	Dispense(ctx context.Context, medicineID uuid.UUID, quantity int) error
}

type Service struct {
	bills     Repository
	patients  PatientDirectory
	stock     StockDispenser
	tx        db.Transactor
	publisher *events.Publisher
	logger    zerolog.Logger
}

func NewService(bills Repository, patients PatientDirectory, stock StockDispenser, tx db.Transactor, publisher *events.Publisher, logger zerolog.Logger) *Service {
	return &Service{bills: bills, patients: patients, stock: stock, tx: tx, publisher: publisher, logger: logger}
}

// CreateBill records a bill for a patient. The amount is computed from the
// line items; when the caller also declares an expected amount, a mismatch
// rejects the bill instead of silently trusting either side. Items that
// reference a medicine dispense stock inside the same transaction as the
// insert, so a shortfall on any line leaves both the bill and the stock
// untouched.
func (s *Service) CreateBill(ctx context.Context, patientID uuid.UUID, items []LineItem, declaredAmount *int64) (*Bill, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindEmptyBill, "bill needs at least one line item")
	}
	var amount int64
	for i, li := range items {
		if li.Description == "" {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "item %d: description is required", i)
		}
		if li.Quantity <= 0 {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "item %d: quantity must be positive", i)
		}
		if li.Price < 0 {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "item %d: price must not be negative", i)
		}
		amount += li.Total()
	}
	if declaredAmount != nil && *declaredAmount != amount {
		return nil, apperr.Newf(apperr.KindAmountMismatch, "declared amount %d does not match computed %d", *declaredAmount, amount)
	}

	b := &Bill{PatientID: patientID, Amount: amount, Items: items}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.patients.Exists(ctx, patientID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindUnknownPatient, "patient does not exist")
		}
		for _, li := range items {
			if li.MedicineID == nil {
				continue
			}
			if err := s.stock.Dispense(ctx, *li.MedicineID, li.Quantity); err != nil {
				return err
			}
		}
		return s.bills.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	if s.publisher.Enabled() {
		evt := events.BillCreated{BillID: b.ID, PatientID: b.PatientID, Amount: b.Amount}
		if err := s.publisher.Publish(ctx, events.QueueBillCreated, evt); err != nil {
			s.logger.Warn().Err(err).Msg("event publish failed")
		}
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	return s.bills.ListByPatient(ctx, patientID, limit, offset)
}
