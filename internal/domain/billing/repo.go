package billing

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceableFilter narrows the invoiceable-order query. Prescribed is a
// three-state filter: nil means both.
type InvoiceableFilter struct {
	PatientID   uuid.UUID
	Company     string
	Category    string
	EncounterID uuid.UUID
	Prescribed  *bool
}

type ServiceOrderRepository interface {
	Create(ctx context.Context, o *ServiceOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*ServiceOrder, error)
	// ListInvoiceable returns submitted, not yet invoiced orders matching the
	// filter, oldest first.
	ListInvoiceable(ctx context.Context, f InvoiceableFilter) ([]*ServiceOrder, error)
	MarkInvoiced(ctx context.Context, ids []uuid.UUID) error
}

// CustomerProvisioner guarantees the patient has a billing customer record
// for the company before invoice lines are produced.
type CustomerProvisioner interface {
	EnsureCustomer(ctx context.Context, patientID uuid.UUID, company string) error
}

// PriceResolver returns the rate for a billing item. Insurance-backed orders
// price from the insurer's list, walk-ins from the company default; a
// patient-specific entry overrides the list price.
type PriceResolver interface {
	Price(ctx context.Context, subscriptionID *uuid.UUID, billingItem, company string, patientID uuid.UUID, insurerCompany string) (float64, error)
}

// IncomeAccountResolver returns the income account invoice lines post to,
// keyed by the ordering practitioner with a company-wide fallback.
type IncomeAccountResolver interface {
	IncomeAccount(ctx context.Context, practitionerID uuid.UUID, company string) (string, error)
}
