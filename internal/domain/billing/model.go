package billing

import (
	"time"

	"github.com/google/uuid"
)

// ServiceOrder maps to the healthcare_service_order table. An order is
// invoiceable once submitted and until its one-shot invoiced flag is set.
type ServiceOrder struct {
	ID                      uuid.UUID  `db:"id" json:"id"`
	PatientID               uuid.UUID  `db:"patient_id" json:"patient_id"`
	Company                 string     `db:"company" json:"company"`
	Category                string     `db:"category" json:"category"`
	OrderGroupID            *uuid.UUID `db:"order_group_id" json:"order_group_id,omitempty"`
	OrderedBy               *uuid.UUID `db:"ordered_by" json:"ordered_by,omitempty"`
	BillingItem             string     `db:"billing_item" json:"billing_item"`
	InsuranceSubscriptionID *uuid.UUID `db:"insurance_subscription_id" json:"insurance_subscription_id,omitempty"`
	InsurerCompany          string     `db:"insurer_company" json:"insurer_company,omitempty"`
	Prescribed              bool       `db:"prescribed" json:"prescribed"`
	Invoiced                bool       `db:"invoiced" json:"invoiced"`
	DocStatus               string     `db:"doc_status" json:"doc_status"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
}

// ReferenceTypeEncounter is the reference type stamped on every emitted
// invoice line.
const ReferenceTypeEncounter = "Patient Encounter"

// LineItem is one row of a draft sales invoice. Orders placed by a
// practitioner carry a resolved rate and income account; the rest are
// emitted at zero for manual pricing.
type LineItem struct {
	ReferenceType string    `json:"reference_type"`
	ReferenceID   uuid.UUID `json:"reference_id"`
	Service       string    `json:"service"`
	Rate          float64   `json:"rate"`
	IncomeAccount string    `json:"income_account,omitempty"`
}
