package inventory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// CreateIfAbsent inserts the medicine unless one with the same name
	// already exists, in which case the existing row is returned and the
	// second result is false.
	CreateIfAbsent(ctx context.Context, m *Medicine) (*Medicine, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	GetByName(ctx context.Context, name string) (*Medicine, error)
	// AdjustStock applies delta to the stock count and returns the new
	// value. The update is conditional on the result staying non-negative;
	// a would-be-negative adjustment changes nothing and returns
	// insufficient_stock.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, price int64) error
	List(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error)
}
