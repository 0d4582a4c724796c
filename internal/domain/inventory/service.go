package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/events"
)

type Service struct {
	medicines Repository
	publisher *events.Publisher
	logger    zerolog.Logger
}

func NewService(medicines Repository, publisher *events.Publisher, logger zerolog.Logger) *Service {
	return &Service{medicines: medicines, publisher: publisher, logger: logger}
}

// AddMedicine registers a medicine in the catalog. The operation is
// idempotent on name: a repeat add returns the existing entry untouched and
// reports created=false rather than failing, so seed runs and double-submits
// are harmless.
func (s *Service) AddMedicine(ctx context.Context, name string, stock int, price int64) (*Medicine, bool, error) {
	if name == "" {
		return nil, false, apperr.New(apperr.KindInvalidArgument, "name is required")
	}
	if stock < 0 {
		return nil, false, apperr.New(apperr.KindInvalidArgument, "stock must not be negative")
	}
	if price < 0 {
		return nil, false, apperr.New(apperr.KindInvalidArgument, "price must not be negative")
	}
	return s.medicines.CreateIfAbsent(ctx, &Medicine{Name: name, Stock: stock, Price: price})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.List(ctx, name, limit, offset)
}

// AdjustStock applies a signed delta: positive restocks, negative dispenses.
// The stock floor is enforced atomically in the store, so concurrent
// dispenses cannot drive the count negative.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Medicine, error) {
	if delta == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "delta must not be zero")
	}
	stock, err := s.medicines.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	if s.publisher.Enabled() {
		evt := events.StockAdjusted{MedicineID: id, Delta: delta, NewStock: stock}
		if err := s.publisher.Publish(ctx, events.QueueStockAdjusted, evt); err != nil {
			s.logger.Warn().Err(err).Msg("event publish failed")
		}
	}

	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Report the count this adjustment produced, not whatever a concurrent
	// adjuster may have moved it to since.
	m.Stock = stock
	return m, nil
}

// Dispense removes quantity units of stock. It exists for the billing flow
// and runs in whatever transaction the caller has opened.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperr.New(apperr.KindInvalidArgument, "quantity must be positive")
	}
	_, err := s.medicines.AdjustStock(ctx, id, -quantity)
	return err
}

func (s *Service) UpdatePrice(ctx context.Context, id uuid.UUID, price int64) error {
	if price < 0 {
		return apperr.New(apperr.KindInvalidArgument, "price must not be negative")
	}
	return s.medicines.UpdatePrice(ctx, id, price)
}
