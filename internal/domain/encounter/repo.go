package encounter

import (
	"context"

	"github.com/google/uuid"
)

type EncounterRepository interface {
	// GetByID loads the encounter header and all twelve prescription
	// collections.
	GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error)
	Create(ctx context.Context, e *Encounter) error
	Update(ctx context.Context, e *Encounter) error
	// SetDuplicate flips the one-shot duplicate flag on the source encounter.
	SetDuplicate(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error)
}
