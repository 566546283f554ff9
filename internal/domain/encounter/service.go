package encounter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pms/pms/internal/domain/insurance"
	"github.com/pms/pms/internal/platform/apperr"
)

// CoverageSource supplies the active coverage rules and the annual claim
// count for a subscription. Implemented by insurance.Service.
type CoverageSource interface {
	ActiveRules(ctx context.Context, subscriptionID uuid.UUID, at time.Time) ([]*insurance.CoverageRule, error)
	ClaimCount(ctx context.Context, serviceTemplate string, subscriptionID uuid.UUID, at time.Time) (int, error)
}

// StockChecker resolves dispensing locations and verifies medication stock.
// Implemented by stock.Service.
type StockChecker interface {
	ResolveLocation(ctx context.Context, explicit *string, serviceUnitID *uuid.UUID) (string, error)
	CheckMedicationStock(ctx context.Context, medicationName string, qty float64, warehouse string) error
}

type Service struct {
	encounters EncounterRepository
	coverage   CoverageSource
	stock      StockChecker
	now        func() time.Time
}

func NewService(encounters EncounterRepository, coverage CoverageSource, stock StockChecker) *Service {
	return &Service{encounters: encounters, coverage: coverage, stock: stock, now: time.Now}
}

// SetClock overrides the service clock. Tests use this to pin dates.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	e, err := s.encounters.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "encounter %s not found", id)
	}
	return e, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	return s.encounters.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Create(ctx context.Context, e *Encounter) error {
	if e.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if e.Company == "" {
		return apperr.Validation("company is required")
	}
	if e.EncounterType == "" {
		e.EncounterType = TypeInitial
	}
	switch e.EncounterType {
	case TypeInitial, TypeOngoing, TypeFinal:
	default:
		return apperr.Newf(apperr.KindValidation, "invalid encounter type: %s", e.EncounterType)
	}
	e.DocStatus = DocStatusDraft
	e.Duplicate = false
	if e.EncounterDate.IsZero() {
		e.EncounterDate = s.now()
	}
	return s.encounters.Create(ctx, e)
}

// Submit validates coverage and moves a draft encounter to submitted.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.DocStatus != DocStatusDraft {
		return nil, apperr.Newf(apperr.KindConflict, "encounter %s is %s, only drafts can be submitted", id, e.DocStatus)
	}
	if err := s.ValidateCoverage(ctx, e); err != nil {
		return nil, err
	}
	e.DocStatus = DocStatusSubmitted
	if err := s.encounters.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ValidateCoverageByID loads the encounter and runs the coverage validation.
func (s *Service) ValidateCoverageByID(ctx context.Context, id uuid.UUID) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.ValidateCoverage(ctx, e)
}

// ValidateCoverage checks every live prescription row against the patient's
// insurance coverage. Self-pay encounters (no subscription) pass untouched.
// Tables are checked in declaration order and the first failing row aborts
// the run; diet recommendations are never checked. Rows with the override
// flag skip every check.
func (s *Service) ValidateCoverage(ctx context.Context, e *Encounter) error {
	if e.InsuranceSubscriptionID == nil {
		return nil
	}
	if e.ServiceUnitID == nil {
		return apperr.Configuration("healthcare service unit is not set on the encounter")
	}
	warehouse, err := s.stock.ResolveLocation(ctx, nil, e.ServiceUnitID)
	if err != nil {
		return err
	}

	// Rule windows and claim caps are evaluated at the current date, not
	// the encounter date: a back-dated encounter still consumes this
	// year's allowance.
	at := s.now()
	rules, err := s.coverage.ActiveRules(ctx, *e.InsuranceSubscriptionID, at)
	if err != nil {
		return err
	}
	caps := make(map[string]int, len(rules))
	for _, r := range rules {
		caps[r.ServiceTemplate] = r.MaxClaimsPerYear
	}

	// Claim counts are memoized per template for the duration of one run.
	counts := make(map[string]int)

	for _, p := range e.tablePairs() {
		if p.name == "diet_recommendations" {
			continue
		}
		for i := range *p.live {
			row := &(*p.live)[i]
			if row.OverrideSubscription {
				continue
			}
			maxPerYear, covered := caps[row.ServiceCode]
			if !covered {
				return apperr.CoverageViolationf("%s is not covered by the insurance subscription", row.ServiceCode)
			}
			if maxPerYear > 0 {
				n, ok := counts[row.ServiceCode]
				if !ok {
					n, err = s.coverage.ClaimCount(ctx, row.ServiceCode, *e.InsuranceSubscriptionID, at)
					if err != nil {
						return err
					}
					counts[row.ServiceCode] = n
				}
				if n >= maxPerYear {
					return apperr.CoverageViolationf("%s has reached its annual claim limit of %d", row.ServiceCode, maxPerYear)
				}
			}
			if p.name == "drugs" {
				qty := row.Quantity
				if qty <= 0 {
					qty = 1
				}
				if err := s.stock.CheckMedicationStock(ctx, row.ServiceCode, qty, warehouse); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Duplicate copies a submitted encounter into the next stage of its episode.
// Preconditions not met (unsubmitted source, already duplicated, wrong stage
// for the direction) are silent no-ops returning uuid.Nil. On success the
// copy's id is returned; the source is flagged duplicate so it can never be
// copied twice.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID, dir Direction) (uuid.UUID, error) {
	var target EncounterType
	switch dir {
	case DirectionForward:
		target = TypeInitial
	case DirectionFollowup:
		target = TypeOngoing
	default:
		return uuid.Nil, apperr.Newf(apperr.KindValidation, "invalid duplication direction: %s", dir)
	}

	src, err := s.Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if src.DocStatus != DocStatusSubmitted || src.Duplicate {
		return uuid.Nil, nil
	}
	if dir == DirectionForward && src.EncounterType != TypeFinal {
		return uuid.Nil, nil
	}
	if dir == DirectionFollowup && src.EncounterType == TypeFinal {
		return uuid.Nil, nil
	}

	dst := src.Clone()
	dst.ID = uuid.Nil
	dst.DocStatus = DocStatusDraft
	dst.Duplicate = false
	dst.EncounterType = target
	dst.EncounterDate = s.now()
	dst.Owner = ""
	dst.UpdatedBy = ""
	dst.CreatedAt = time.Time{}
	dst.UpdatedAt = time.Time{}
	dst.AmendedFromID = nil
	if dst.ReferenceEncounterID == nil {
		dst.ReferenceEncounterID = cloneID(&src.ID)
	}
	dst.FromEncounterID = cloneID(&src.ID)

	// Live rows migrate into the history tables, audit-cleared; the copy
	// starts with empty live tables.
	for _, p := range dst.tablePairs() {
		*p.prev = append(*p.prev, *p.live...)
		for i := range *p.prev {
			(*p.prev)[i].clearAudit()
		}
		*p.live = nil
	}

	if err := s.encounters.Create(ctx, dst); err != nil {
		return uuid.Nil, err
	}
	if err := s.encounters.SetDuplicate(ctx, src.ID); err != nil {
		return uuid.Nil, err
	}
	return dst.ID, nil
}
