package insurance

import (
	"time"

	"github.com/google/uuid"
)

// Subscription maps to the insurance_subscription table. A subscription links
// a patient to an insurer and, when configured, to a coverage plan.
type Subscription struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PolicyNumber   string     `db:"policy_number" json:"policy_number"`
	InsurerCompany string     `db:"insurer_company" json:"insurer_company"`
	CoveragePlanID *uuid.UUID `db:"coverage_plan_id" json:"coverage_plan_id,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// CoveragePlan maps to the coverage_plan table.
type CoveragePlan struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	InsurerCompany string    `db:"insurer_company" json:"insurer_company"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CoverageRule maps to the coverage_rule table. A rule states that a service
// template is reimbursable under a plan within its date window, up to
// MaxClaimsPerYear claims per calendar year (0 = unlimited).
type CoverageRule struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PlanID           uuid.UUID `db:"plan_id" json:"plan_id"`
	ServiceTemplate  string    `db:"service_template" json:"service_template"`
	StartDate        time.Time `db:"start_date" json:"start_date"`
	EndDate          time.Time `db:"end_date" json:"end_date"`
	Active           bool      `db:"active" json:"active"`
	MaxClaimsPerYear int       `db:"max_claims_per_year" json:"max_claims_per_year"`
}

// InWindow reports whether the rule's activity window contains the given
// date. Boundaries are inclusive.
func (r *CoverageRule) InWindow(at time.Time) bool {
	day := at.Truncate(24 * time.Hour)
	return !day.Before(r.StartDate.Truncate(24*time.Hour)) &&
		!day.After(r.EndDate.Truncate(24*time.Hour))
}

// Claim maps to the insurance_claim table. Claims are written by the
// claim-recording workflow and read here only for annual cap counting.
type Claim struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ServiceTemplate string    `db:"service_template" json:"service_template"`
	SubscriptionID  uuid.UUID `db:"subscription_id" json:"subscription_id"`
	PostingDate     time.Time `db:"posting_date" json:"posting_date"`
	Amount          float64   `db:"amount" json:"amount"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
