package stock

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/pms/pms/internal/platform/apperr"
)

type mockItemRepo struct {
	items map[string]*Item
}

func (m *mockItemRepo) GetByCode(_ context.Context, code string) (*Item, error) {
	it, ok := m.items[code]
	if !ok {
		return nil, fmt.Errorf("item not found")
	}
	return it, nil
}

type mockMedicationRepo struct {
	meds map[string]*Medication
}

func (m *mockMedicationRepo) GetByName(_ context.Context, name string) (*Medication, error) {
	md, ok := m.meds[name]
	if !ok {
		return nil, fmt.Errorf("medication not found")
	}
	return md, nil
}

type mockServiceUnitRepo struct {
	units map[uuid.UUID]*ServiceUnit
}

func (m *mockServiceUnitRepo) GetByID(_ context.Context, id uuid.UUID) (*ServiceUnit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, fmt.Errorf("service unit not found")
	}
	return u, nil
}

type ledgerKey struct{ item, warehouse string }

type mockLedgerRepo struct {
	sums    map[ledgerKey]float64
	entries []*LedgerEntry
}

func (m *mockLedgerRepo) SumQty(_ context.Context, itemCode, warehouse string) (float64, error) {
	return m.sums[ledgerKey{itemCode, warehouse}], nil
}

func (m *mockLedgerRepo) Record(_ context.Context, e *LedgerEntry) error {
	m.entries = append(m.entries, e)
	m.sums[ledgerKey{e.ItemCode, e.Warehouse}] += e.Qty
	return nil
}

func strptr(s string) *string { return &s }

func newTestService() (*Service, *mockItemRepo, *mockMedicationRepo, *mockServiceUnitRepo, *mockLedgerRepo) {
	items := &mockItemRepo{items: map[string]*Item{}}
	meds := &mockMedicationRepo{meds: map[string]*Medication{}}
	units := &mockServiceUnitRepo{units: map[uuid.UUID]*ServiceUnit{}}
	ledger := &mockLedgerRepo{sums: map[ledgerKey]float64{}}
	return NewService(items, meds, units, ledger), items, meds, units, ledger
}

func TestResolveLocation_ExplicitWins(t *testing.T) {
	svc, _, _, units, _ := newTestService()
	unitID := uuid.New()
	units.units[unitID] = &ServiceUnit{ID: unitID, Name: "OPD", Warehouse: strptr("Main Store")}

	got, err := svc.ResolveLocation(context.Background(), strptr("Pharmacy Store"), &unitID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Pharmacy Store" {
		t.Errorf("expected explicit warehouse to win, got %s", got)
	}
}

func TestResolveLocation_FallsBackToServiceUnit(t *testing.T) {
	svc, _, _, units, _ := newTestService()
	unitID := uuid.New()
	units.units[unitID] = &ServiceUnit{ID: unitID, Name: "OPD", Warehouse: strptr("Main Store")}

	got, err := svc.ResolveLocation(context.Background(), nil, &unitID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Main Store" {
		t.Errorf("expected service unit warehouse, got %s", got)
	}
}

func TestResolveLocation_NoSource(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	_, err := svc.ResolveLocation(context.Background(), nil, nil)
	if !apperr.IsKind(err, apperr.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestResolveLocation_UnitWithoutWarehouse(t *testing.T) {
	svc, _, _, units, _ := newTestService()
	unitID := uuid.New()
	units.units[unitID] = &ServiceUnit{ID: unitID, Name: "OPD"}

	_, err := svc.ResolveLocation(context.Background(), nil, &unitID)
	if !apperr.IsKind(err, apperr.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestAvailability_ZeroWhenNoRows(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	qty, err := svc.Availability(context.Background(), "PCM-500", "Main Store")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 0 {
		t.Errorf("expected 0 availability, got %g", qty)
	}
}

func TestAvailability_SignedSum(t *testing.T) {
	svc, items, _, _, ledger := newTestService()
	items.items["PCM-500"] = &Item{Code: "PCM-500", IsStockItem: true}
	ledger.sums[ledgerKey{"PCM-500", "Main Store"}] = 0
	for _, q := range []float64{100, -30, -25} {
		if err := svc.RecordMovement(context.Background(), &LedgerEntry{
			ItemCode: "PCM-500", Warehouse: "Main Store", Qty: q,
		}); err != nil {
			t.Fatalf("record movement: %v", err)
		}
	}

	qty, err := svc.Availability(context.Background(), "PCM-500", "Main Store")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 45 {
		t.Errorf("expected 45, got %g", qty)
	}
}

func TestCheckMedicationStock_Sufficient(t *testing.T) {
	svc, items, meds, _, ledger := newTestService()
	items.items["PCM-500"] = &Item{Code: "PCM-500", IsStockItem: true}
	meds.meds["Paracetamol 500mg"] = &Medication{Name: "Paracetamol 500mg", ItemCode: strptr("PCM-500")}
	ledger.sums[ledgerKey{"PCM-500", "Main Store"}] = 10

	if err := svc.CheckMedicationStock(context.Background(), "Paracetamol 500mg", 10, "Main Store"); err != nil {
		t.Errorf("expected qty equal to availability to pass, got %v", err)
	}
}

func TestCheckMedicationStock_Insufficient(t *testing.T) {
	svc, items, meds, _, ledger := newTestService()
	items.items["PCM-500"] = &Item{Code: "PCM-500", IsStockItem: true}
	meds.meds["Paracetamol 500mg"] = &Medication{Name: "Paracetamol 500mg", ItemCode: strptr("PCM-500")}
	ledger.sums[ledgerKey{"PCM-500", "Main Store"}] = 5

	err := svc.CheckMedicationStock(context.Background(), "Paracetamol 500mg", 6, "Main Store")
	if !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Errorf("expected insufficient stock error, got %v", err)
	}
}

func TestCheckMedicationStock_NonStockItemPasses(t *testing.T) {
	svc, items, meds, _, _ := newTestService()
	items.items["SRV-INF"] = &Item{Code: "SRV-INF", IsStockItem: false}
	meds.meds["Infusion Service"] = &Medication{Name: "Infusion Service", ItemCode: strptr("SRV-INF")}

	if err := svc.CheckMedicationStock(context.Background(), "Infusion Service", 100, "Main Store"); err != nil {
		t.Errorf("expected non-stock item to pass, got %v", err)
	}
}

func TestCheckMedicationStock_NoItemLinkPasses(t *testing.T) {
	svc, _, meds, _, _ := newTestService()
	meds.meds["Herbal Mix"] = &Medication{Name: "Herbal Mix"}

	if err := svc.CheckMedicationStock(context.Background(), "Herbal Mix", 3, "Main Store"); err != nil {
		t.Errorf("expected medication without item link to pass, got %v", err)
	}
}

func TestCheckMedicationStock_UnknownMedication(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	err := svc.CheckMedicationStock(context.Background(), "Unknown", 1, "Main Store")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRecordMovement_Validation(t *testing.T) {
	svc, items, _, _, _ := newTestService()
	items.items["SRV-X"] = &Item{Code: "SRV-X", IsStockItem: false}

	cases := []LedgerEntry{
		{Warehouse: "Main Store", Qty: 1},
		{ItemCode: "PCM-500", Qty: 1},
		{ItemCode: "PCM-500", Warehouse: "Main Store"},
	}
	for _, e := range cases {
		entry := e
		if err := svc.RecordMovement(context.Background(), &entry); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("expected validation error for %+v, got %v", e, err)
		}
	}

	err := svc.RecordMovement(context.Background(), &LedgerEntry{ItemCode: "SRV-X", Warehouse: "Main Store", Qty: 1})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for non-stock item, got %v", err)
	}
}
