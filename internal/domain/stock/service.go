package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pms/pms/internal/platform/apperr"
)

type Service struct {
	items  ItemRepository
	meds   MedicationRepository
	units  ServiceUnitRepository
	ledger LedgerRepository
	now    func() time.Time
}

func NewService(items ItemRepository, meds MedicationRepository, units ServiceUnitRepository, ledger LedgerRepository) *Service {
	return &Service{items: items, meds: meds, units: units, ledger: ledger, now: time.Now}
}

// ResolveLocation picks the warehouse to check stock against. An explicit
// location always wins; otherwise the encounter's service unit supplies its
// default warehouse. Neither being set is a setup problem.
func (s *Service) ResolveLocation(ctx context.Context, explicit *string, serviceUnitID *uuid.UUID) (string, error) {
	if explicit != nil && *explicit != "" {
		return *explicit, nil
	}
	if serviceUnitID != nil {
		unit, err := s.units.GetByID(ctx, *serviceUnitID)
		if err != nil {
			return "", apperr.Newf(apperr.KindNotFound, "service unit %s not found", *serviceUnitID)
		}
		if unit.Warehouse != nil && *unit.Warehouse != "" {
			return *unit.Warehouse, nil
		}
		return "", apperr.Configurationf("service unit %s has no warehouse assigned", unit.Name)
	}
	return "", apperr.Configuration("no stock location: set a warehouse or a service unit")
}

// Availability returns the signed ledger total for the item at the warehouse.
// An item never moved at the warehouse has availability 0.
func (s *Service) Availability(ctx context.Context, itemCode, warehouse string) (float64, error) {
	qty, err := s.ledger.SumQty(ctx, itemCode, warehouse)
	if err != nil {
		return 0, fmt.Errorf("sum stock ledger: %w", err)
	}
	return qty, nil
}

// CheckMedicationStock verifies that the requested quantity of a medication
// can be dispensed from the warehouse. Medications without a stock item link
// and items not tracked in stock always pass.
func (s *Service) CheckMedicationStock(ctx context.Context, medicationName string, qty float64, warehouse string) error {
	med, err := s.meds.GetByName(ctx, medicationName)
	if err != nil {
		return apperr.Newf(apperr.KindNotFound, "medication %q not found", medicationName)
	}
	if med.ItemCode == nil || *med.ItemCode == "" {
		return nil
	}
	item, err := s.items.GetByCode(ctx, *med.ItemCode)
	if err != nil {
		return apperr.Newf(apperr.KindNotFound, "item %q not found", *med.ItemCode)
	}
	if !item.IsStockItem {
		return nil
	}
	available, err := s.Availability(ctx, item.Code, warehouse)
	if err != nil {
		return err
	}
	if qty > available {
		return apperr.InsufficientStockf("%s: requested %g but only %g available at %s",
			medicationName, qty, available, warehouse)
	}
	return nil
}

func (s *Service) RecordMovement(ctx context.Context, e *LedgerEntry) error {
	if e.ItemCode == "" {
		return apperr.Validation("item_code is required")
	}
	if e.Warehouse == "" {
		return apperr.Validation("warehouse is required")
	}
	if e.Qty == 0 {
		return apperr.Validation("qty must be non-zero")
	}
	item, err := s.items.GetByCode(ctx, e.ItemCode)
	if err != nil {
		return apperr.Newf(apperr.KindNotFound, "item %q not found", e.ItemCode)
	}
	if !item.IsStockItem {
		return apperr.Validation("cannot record stock movement for a non-stock item")
	}
	if e.PostingDate.IsZero() {
		e.PostingDate = s.now()
	}
	return s.ledger.Record(ctx, e)
}
