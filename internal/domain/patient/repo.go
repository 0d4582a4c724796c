package patient

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows List results. Zero-value fields are ignored.
type Filter struct {
	Name  string
	Phone string
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata []byte) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error)
}
