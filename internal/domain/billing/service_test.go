package billing

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/pms/pms/internal/platform/apperr"
)

type mockOrderRepo struct {
	orders map[uuid.UUID]*ServiceOrder
	seq    []uuid.UUID
}

func (m *mockOrderRepo) Create(_ context.Context, o *ServiceOrder) error {
	o.ID = uuid.New()
	m.orders[o.ID] = o
	m.seq = append(m.seq, o.ID)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*ServiceOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order not found")
	}
	return o, nil
}

func (m *mockOrderRepo) ListInvoiceable(_ context.Context, f InvoiceableFilter) ([]*ServiceOrder, error) {
	var out []*ServiceOrder
	for _, id := range m.seq {
		o := m.orders[id]
		if o.PatientID != f.PatientID || o.Company != f.Company || o.Category != f.Category {
			continue
		}
		if o.OrderGroupID == nil || *o.OrderGroupID != f.EncounterID {
			continue
		}
		if o.DocStatus != "submitted" || o.Invoiced {
			continue
		}
		if f.Prescribed != nil && o.Prescribed != *f.Prescribed {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderRepo) MarkInvoiced(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if o, ok := m.orders[id]; ok {
			o.Invoiced = true
		}
	}
	return nil
}

type mockCustomers struct {
	ensured int
}

func (m *mockCustomers) EnsureCustomer(_ context.Context, _ uuid.UUID, _ string) error {
	m.ensured++
	return nil
}

type priceKey struct{ item, priceList string }

type priceLookup struct {
	subscriptionID *uuid.UUID
	patientID      uuid.UUID
}

type mockPrices struct {
	rates   map[priceKey]float64
	lookups []priceLookup
}

func (m *mockPrices) Price(_ context.Context, subscriptionID *uuid.UUID, billingItem, company string, patientID uuid.UUID, insurerCompany string) (float64, error) {
	m.lookups = append(m.lookups, priceLookup{subscriptionID, patientID})
	priceList := company
	if subscriptionID != nil && insurerCompany != "" {
		priceList = insurerCompany
	}
	return m.rates[priceKey{billingItem, priceList}], nil
}

type mockAccounts struct {
	byPractitioner map[uuid.UUID]string
	byCompany      map[string]string
}

func (m *mockAccounts) IncomeAccount(_ context.Context, practitionerID uuid.UUID, company string) (string, error) {
	if a, ok := m.byPractitioner[practitionerID]; ok {
		return a, nil
	}
	if a, ok := m.byCompany[company]; ok {
		return a, nil
	}
	return "", apperr.Configurationf("no income account configured for company %s", company)
}

func newTestService() (*Service, *mockOrderRepo, *mockCustomers, *mockPrices, *mockAccounts) {
	orders := &mockOrderRepo{orders: map[uuid.UUID]*ServiceOrder{}}
	customers := &mockCustomers{}
	prices := &mockPrices{rates: map[priceKey]float64{}}
	accounts := &mockAccounts{byPractitioner: map[uuid.UUID]string{}, byCompany: map[string]string{}}
	return NewService(orders, customers, prices, accounts), orders, customers, prices, accounts
}

func boolptr(v bool) *bool { return &v }

func TestInvoiceableServices_EmptyWithoutCategoryOrEncounter(t *testing.T) {
	svc, _, customers, _, _ := newTestService()

	items, err := svc.InvoiceableServices(context.Background(), InvoiceableFilter{
		PatientID: uuid.New(), Company: "Clinic Ltd", EncounterID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result without category, got %d items", len(items))
	}

	items, err = svc.InvoiceableServices(context.Background(), InvoiceableFilter{
		PatientID: uuid.New(), Company: "Clinic Ltd", Category: "Laboratory",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result without encounter, got %d items", len(items))
	}
	if customers.ensured != 0 {
		t.Error("expected no customer provisioning on the empty-guard path")
	}
}

func TestInvoiceableServices_TwoOrderAggregation(t *testing.T) {
	svc, orders, customers, prices, accounts := newTestService()
	patientID := uuid.New()
	encounterID := uuid.New()
	practitionerID := uuid.New()
	subscriptionID := uuid.New()

	ordered := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		OrderGroupID: &encounterID, OrderedBy: &practitionerID,
		BillingItem: "CBC", InsuranceSubscriptionID: &subscriptionID,
		InsurerCompany: "NHIF", DocStatus: "submitted",
	}
	walkIn := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		OrderGroupID: &encounterID,
		BillingItem:  "Malaria Smear", DocStatus: "submitted",
	}
	if err := orders.Create(context.Background(), ordered); err != nil {
		t.Fatal(err)
	}
	if err := orders.Create(context.Background(), walkIn); err != nil {
		t.Fatal(err)
	}
	prices.rates[priceKey{"CBC", "NHIF"}] = 15000
	accounts.byCompany["Clinic Ltd"] = "Insurance Income - CL"

	items, err := svc.InvoiceableServices(context.Background(), InvoiceableFilter{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		EncounterID: encounterID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(items))
	}
	if customers.ensured != 1 {
		t.Errorf("expected customer provisioned once, got %d", customers.ensured)
	}

	first := items[0]
	if first.Service != "CBC" || first.Rate != 15000 || first.IncomeAccount != "Insurance Income - CL" {
		t.Errorf("unexpected practitioner-ordered line: %+v", first)
	}
	if first.ReferenceType != ReferenceTypeEncounter || first.ReferenceID != ordered.ID {
		t.Errorf("unexpected reference on first line: %+v", first)
	}

	second := items[1]
	if second.Service != "Malaria Smear" || second.Rate != 0 || second.IncomeAccount != "" {
		t.Errorf("expected zero-rated line without account, got %+v", second)
	}

	if len(prices.lookups) != 1 {
		t.Fatalf("expected one price lookup, got %d", len(prices.lookups))
	}
	lookup := prices.lookups[0]
	if lookup.subscriptionID == nil || *lookup.subscriptionID != subscriptionID {
		t.Error("expected the order's subscription passed to the price resolver")
	}
	if lookup.patientID != patientID {
		t.Error("expected the order's patient passed to the price resolver")
	}
}

func TestInvoiceableServices_AccountVariesByPractitioner(t *testing.T) {
	svc, orders, _, _, accounts := newTestService()
	patientID := uuid.New()
	encounterID := uuid.New()
	labDoc := uuid.New()
	radDoc := uuid.New()

	lab := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		OrderGroupID: &encounterID, OrderedBy: &labDoc,
		BillingItem: "CBC", DocStatus: "submitted",
	}
	rad := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		OrderGroupID: &encounterID, OrderedBy: &radDoc,
		BillingItem: "X-Ray Chest", DocStatus: "submitted",
	}
	for _, o := range []*ServiceOrder{lab, rad} {
		if err := orders.Create(context.Background(), o); err != nil {
			t.Fatal(err)
		}
	}
	accounts.byPractitioner[labDoc] = "Lab Income - CL"
	accounts.byPractitioner[radDoc] = "Radiology Income - CL"

	items, err := svc.InvoiceableServices(context.Background(), InvoiceableFilter{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		EncounterID: encounterID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(items))
	}
	if items[0].IncomeAccount != "Lab Income - CL" {
		t.Errorf("expected the lab practitioner's account, got %q", items[0].IncomeAccount)
	}
	if items[1].IncomeAccount != "Radiology Income - CL" {
		t.Errorf("expected the radiology practitioner's account, got %q", items[1].IncomeAccount)
	}
}

func TestInvoiceableServices_SkipsInvoicedAndDrafts(t *testing.T) {
	svc, orders, _, _, _ := newTestService()
	patientID := uuid.New()
	encounterID := uuid.New()

	invoiced := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		OrderGroupID: &encounterID, BillingItem: "CBC",
		DocStatus: "submitted", Invoiced: true,
	}
	draft := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		OrderGroupID: &encounterID, BillingItem: "ESR", DocStatus: "draft",
	}
	open := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		OrderGroupID: &encounterID, BillingItem: "Blood Sugar", DocStatus: "submitted",
	}
	for _, o := range []*ServiceOrder{invoiced, draft, open} {
		if err := orders.Create(context.Background(), o); err != nil {
			t.Fatal(err)
		}
	}

	items, err := svc.InvoiceableServices(context.Background(), InvoiceableFilter{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		EncounterID: encounterID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Service != "Blood Sugar" {
		t.Errorf("expected only the open submitted order, got %+v", items)
	}
}

func TestInvoiceableServices_PrescribedFilter(t *testing.T) {
	svc, orders, _, _, _ := newTestService()
	patientID := uuid.New()
	encounterID := uuid.New()

	prescribed := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Pharmacy",
		OrderGroupID: &encounterID, BillingItem: "Paracetamol 500mg",
		Prescribed: true, DocStatus: "submitted",
	}
	unprescribed := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Pharmacy",
		OrderGroupID: &encounterID, BillingItem: "Vitamin C", DocStatus: "submitted",
	}
	for _, o := range []*ServiceOrder{prescribed, unprescribed} {
		if err := orders.Create(context.Background(), o); err != nil {
			t.Fatal(err)
		}
	}

	items, err := svc.InvoiceableServices(context.Background(), InvoiceableFilter{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Pharmacy",
		EncounterID: encounterID, Prescribed: boolptr(true),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Service != "Paracetamol 500mg" {
		t.Errorf("expected only the prescribed order, got %+v", items)
	}
}

func TestInvoiceableServices_AccountErrorPropagates(t *testing.T) {
	svc, orders, _, _, _ := newTestService()
	patientID := uuid.New()
	encounterID := uuid.New()
	practitionerID := uuid.New()

	o := &ServiceOrder{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		OrderGroupID: &encounterID, OrderedBy: &practitionerID,
		BillingItem: "CBC", DocStatus: "submitted",
	}
	if err := orders.Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	_, err := svc.InvoiceableServices(context.Background(), InvoiceableFilter{
		PatientID: patientID, Company: "Clinic Ltd", Category: "Laboratory",
		EncounterID: encounterID,
	})
	if !apperr.IsKind(err, apperr.KindConfiguration) {
		t.Errorf("expected configuration error for missing income account, got %v", err)
	}
}

func TestMarkInvoiced(t *testing.T) {
	svc, orders, _, _, _ := newTestService()
	o := &ServiceOrder{
		PatientID: uuid.New(), Company: "Clinic Ltd", Category: "Laboratory",
		BillingItem: "CBC", DocStatus: "submitted",
	}
	if err := orders.Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	if err := svc.MarkInvoiced(context.Background(), []uuid.UUID{o.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !orders.orders[o.ID].Invoiced {
		t.Error("expected order flagged invoiced")
	}

	err := svc.MarkInvoiced(context.Background(), nil)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for empty id list, got %v", err)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	err := svc.CreateOrder(context.Background(), &ServiceOrder{Company: "Clinic Ltd", BillingItem: "CBC"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for missing patient, got %v", err)
	}

	o := &ServiceOrder{PatientID: uuid.New(), Company: "Clinic Ltd", BillingItem: "CBC"}
	if err := svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.DocStatus != "submitted" {
		t.Errorf("expected default doc status submitted, got %s", o.DocStatus)
	}
}
