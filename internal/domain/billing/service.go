package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pms/pms/internal/platform/apperr"
)

type Service struct {
	orders    ServiceOrderRepository
	customers CustomerProvisioner
	prices    PriceResolver
	accounts  IncomeAccountResolver
}

func NewService(orders ServiceOrderRepository, customers CustomerProvisioner, prices PriceResolver, accounts IncomeAccountResolver) *Service {
	return &Service{orders: orders, customers: customers, prices: prices, accounts: accounts}
}

func (s *Service) CreateOrder(ctx context.Context, o *ServiceOrder) error {
	if o.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if o.Company == "" {
		return apperr.Validation("company is required")
	}
	if o.BillingItem == "" {
		return apperr.Validation("billing_item is required")
	}
	if o.DocStatus == "" {
		o.DocStatus = "submitted"
	}
	return s.orders.Create(ctx, o)
}

// InvoiceableServices aggregates a patient's open service orders into draft
// invoice lines. A missing category or encounter yields an empty result, not
// an error. The billing customer record is provisioned before any line is
// produced so the resulting invoice always has a customer to attach to.
func (s *Service) InvoiceableServices(ctx context.Context, f InvoiceableFilter) ([]LineItem, error) {
	if f.Category == "" || f.EncounterID == uuid.Nil {
		return []LineItem{}, nil
	}
	if err := s.customers.EnsureCustomer(ctx, f.PatientID, f.Company); err != nil {
		return nil, fmt.Errorf("ensure billing customer: %w", err)
	}
	orders, err := s.orders.ListInvoiceable(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list invoiceable orders: %w", err)
	}

	items := make([]LineItem, 0, len(orders))
	for _, o := range orders {
		li := LineItem{
			ReferenceType: ReferenceTypeEncounter,
			ReferenceID:   o.ID,
			Service:       o.BillingItem,
		}
		if o.OrderedBy != nil {
			rate, err := s.prices.Price(ctx, o.InsuranceSubscriptionID, o.BillingItem, o.Company, o.PatientID, o.InsurerCompany)
			if err != nil {
				return nil, fmt.Errorf("resolve price for %s: %w", o.BillingItem, err)
			}
			account, err := s.accounts.IncomeAccount(ctx, *o.OrderedBy, o.Company)
			if err != nil {
				return nil, err
			}
			li.Rate = rate
			li.IncomeAccount = account
		}
		items = append(items, li)
	}
	return items, nil
}

// MarkInvoiced flips the one-shot invoiced flag on the given orders.
func (s *Service) MarkInvoiced(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return apperr.Validation("at least one service order id is required")
	}
	return s.orders.MarkInvoiced(ctx, ids)
}
