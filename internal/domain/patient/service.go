package patient

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

// Register creates a patient record. Metadata is stored opaquely; the only
// requirement is that it is a well-formed JSON object.
func (s *Service) Register(ctx context.Context, name string, phone *string, metadata json.RawMessage) (*Patient, error) {
	if name == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "name is required")
	}
	if len(metadata) > 0 && !json.Valid(metadata) {
		return nil, apperr.New(apperr.KindInvalidArgument, "metadata must be well-formed JSON")
	}
	p := &Patient{Name: name, Phone: phone, Metadata: metadata}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// Exists reports whether the patient record exists; used by other components
// to validate references before writing.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.patients.Exists(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, f, limit, offset)
}

// UpdateMetadata replaces the opaque metadata document.
func (s *Service) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata json.RawMessage) error {
	if len(metadata) == 0 || !json.Valid(metadata) {
		return apperr.New(apperr.KindInvalidArgument, "metadata must be well-formed JSON")
	}
	return s.patients.UpdateMetadata(ctx, id, metadata)
}
