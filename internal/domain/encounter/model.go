package encounter

import (
	"time"

	"github.com/google/uuid"
)

type DocStatus string

const (
	DocStatusDraft     DocStatus = "draft"
	DocStatusSubmitted DocStatus = "submitted"
	DocStatusCancelled DocStatus = "cancelled"
)

type EncounterType string

const (
	TypeInitial EncounterType = "Initial"
	TypeOngoing EncounterType = "Ongoing"
	TypeFinal   EncounterType = "Final"
)

// Direction selects the duplication mode. Forward closes an episode stage:
// a Final encounter spawns a fresh Initial one. Followup continues the
// current stage: a non-Final encounter spawns an Ongoing one.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionFollowup Direction = "followup"
)

// PrescriptionRow is one prescribed service line. The same shape backs all
// twelve collections (six live, six history).
type PrescriptionRow struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	EncounterID          uuid.UUID `db:"encounter_id" json:"encounter_id"`
	ServiceCode          string    `db:"service_code" json:"service_code"`
	Quantity             float64   `db:"quantity" json:"quantity"`
	OverrideSubscription bool      `db:"override_subscription" json:"override_subscription"`
	Comment              string    `db:"comment" json:"comment,omitempty"`
	Owner                string    `db:"owner" json:"owner,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy            string    `db:"updated_by" json:"updated_by,omitempty"`
}

// clearAudit strips identity and audit fields so the row can be re-parented
// under a new encounter as a fresh record.
func (r *PrescriptionRow) clearAudit() {
	r.ID = uuid.Nil
	r.EncounterID = uuid.Nil
	r.Owner = ""
	r.CreatedAt = time.Time{}
	r.UpdatedAt = time.Time{}
	r.UpdatedBy = ""
}

// Encounter is the clinical visit record. Live collections hold the current
// visit's prescriptions; the "previous" collections accumulate the episode's
// history as encounters are duplicated forward.
type Encounter struct {
	ID                      uuid.UUID     `db:"id" json:"id"`
	PatientID               uuid.UUID     `db:"patient_id" json:"patient_id"`
	Company                 string        `db:"company" json:"company"`
	PractitionerID          *uuid.UUID    `db:"practitioner_id" json:"practitioner_id,omitempty"`
	DocStatus               DocStatus     `db:"doc_status" json:"doc_status"`
	EncounterType           EncounterType `db:"encounter_type" json:"encounter_type"`
	Duplicate               bool          `db:"duplicate" json:"duplicate"`
	InsuranceSubscriptionID *uuid.UUID    `db:"insurance_subscription_id" json:"insurance_subscription_id,omitempty"`
	ServiceUnitID           *uuid.UUID    `db:"service_unit_id" json:"service_unit_id,omitempty"`
	ReferenceEncounterID    *uuid.UUID    `db:"reference_encounter_id" json:"reference_encounter_id,omitempty"`
	FromEncounterID         *uuid.UUID    `db:"from_encounter_id" json:"from_encounter_id,omitempty"`
	EncounterDate           time.Time     `db:"encounter_date" json:"encounter_date"`
	Owner                   string        `db:"owner" json:"owner,omitempty"`
	AmendedFromID           *uuid.UUID    `db:"amended_from_id" json:"amended_from_id,omitempty"`
	CreatedAt               time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time     `db:"updated_at" json:"updated_at"`
	UpdatedBy               string        `db:"updated_by" json:"updated_by,omitempty"`

	Drugs                       []PrescriptionRow `json:"drugs,omitempty"`
	PreviousDrugs               []PrescriptionRow `json:"previous_drugs,omitempty"`
	LabTests                    []PrescriptionRow `json:"lab_tests,omitempty"`
	PreviousLabTests            []PrescriptionRow `json:"previous_lab_tests,omitempty"`
	Procedures                  []PrescriptionRow `json:"procedures,omitempty"`
	PreviousProcedures          []PrescriptionRow `json:"previous_procedures,omitempty"`
	RadiologyProcedures         []PrescriptionRow `json:"radiology_procedures,omitempty"`
	PreviousRadiologyProcedures []PrescriptionRow `json:"previous_radiology_procedures,omitempty"`
	Therapies                   []PrescriptionRow `json:"therapies,omitempty"`
	PreviousTherapies           []PrescriptionRow `json:"previous_therapies,omitempty"`
	DietRecommendations         []PrescriptionRow `json:"diet_recommendations,omitempty"`
	PreviousDietRecommendations []PrescriptionRow `json:"previous_diet_recommendations,omitempty"`
}

type tablePair struct {
	name string
	live *[]PrescriptionRow
	prev *[]PrescriptionRow
}

// tablePairs enumerates the live/history collection pairs in declaration
// order. The validator and the duplicator both walk tables in this order.
func (e *Encounter) tablePairs() []tablePair {
	return []tablePair{
		{"drugs", &e.Drugs, &e.PreviousDrugs},
		{"lab_tests", &e.LabTests, &e.PreviousLabTests},
		{"procedures", &e.Procedures, &e.PreviousProcedures},
		{"radiology_procedures", &e.RadiologyProcedures, &e.PreviousRadiologyProcedures},
		{"therapies", &e.Therapies, &e.PreviousTherapies},
		{"diet_recommendations", &e.DietRecommendations, &e.PreviousDietRecommendations},
	}
}

// collections maps storage collection names to the backing slices.
func (e *Encounter) collections() map[string]*[]PrescriptionRow {
	m := make(map[string]*[]PrescriptionRow, 12)
	for _, p := range e.tablePairs() {
		m[p.name] = p.live
		m["previous_"+p.name] = p.prev
	}
	return m
}

func cloneRows(rows []PrescriptionRow) []PrescriptionRow {
	if rows == nil {
		return nil
	}
	out := make([]PrescriptionRow, len(rows))
	copy(out, rows)
	return out
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// Clone returns a deep copy of the encounter.
func (e *Encounter) Clone() *Encounter {
	c := *e
	c.PractitionerID = cloneID(e.PractitionerID)
	c.InsuranceSubscriptionID = cloneID(e.InsuranceSubscriptionID)
	c.ServiceUnitID = cloneID(e.ServiceUnitID)
	c.ReferenceEncounterID = cloneID(e.ReferenceEncounterID)
	c.FromEncounterID = cloneID(e.FromEncounterID)
	c.AmendedFromID = cloneID(e.AmendedFromID)
	c.Drugs = cloneRows(e.Drugs)
	c.PreviousDrugs = cloneRows(e.PreviousDrugs)
	c.LabTests = cloneRows(e.LabTests)
	c.PreviousLabTests = cloneRows(e.PreviousLabTests)
	c.Procedures = cloneRows(e.Procedures)
	c.PreviousProcedures = cloneRows(e.PreviousProcedures)
	c.RadiologyProcedures = cloneRows(e.RadiologyProcedures)
	c.PreviousRadiologyProcedures = cloneRows(e.PreviousRadiologyProcedures)
	c.Therapies = cloneRows(e.Therapies)
	c.PreviousTherapies = cloneRows(e.PreviousTherapies)
	c.DietRecommendations = cloneRows(e.DietRecommendations)
	c.PreviousDietRecommendations = cloneRows(e.PreviousDietRecommendations)
	return &c
}
