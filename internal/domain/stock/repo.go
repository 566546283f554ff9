package stock

import (
	"context"

	"github.com/google/uuid"
)

type ItemRepository interface {
	GetByCode(ctx context.Context, code string) (*Item, error)
}

type MedicationRepository interface {
	GetByName(ctx context.Context, name string) (*Medication, error)
}

type ServiceUnitRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ServiceUnit, error)
}

type LedgerRepository interface {
	// SumQty returns the signed quantity total for (item, warehouse), 0 when
	// the pair has no ledger rows.
	SumQty(ctx context.Context, itemCode, warehouse string) (float64, error)
	Record(ctx context.Context, e *LedgerEntry) error
}
