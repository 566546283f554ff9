package insurance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pms/pms/internal/platform/apperr"
)

type Service struct {
	subs   SubscriptionRepository
	rules  CoverageRuleRepository
	claims ClaimRepository
	now    func() time.Time
}

func NewService(subs SubscriptionRepository, rules CoverageRuleRepository, claims ClaimRepository) *Service {
	return &Service{subs: subs, rules: rules, claims: claims, now: time.Now}
}

// SetClock overrides the service clock. Tests use this to pin year boundaries.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ActiveRules resolves the coverage plan behind a subscription and returns the
// rules active on the given date. A subscription without a linked plan is a
// setup problem, reported as a configuration error rather than an empty list.
func (s *Service) ActiveRules(ctx context.Context, subscriptionID uuid.UUID, at time.Time) ([]*CoverageRule, error) {
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "insurance subscription %s not found", subscriptionID)
	}
	if sub.CoveragePlanID == nil {
		return nil, apperr.Configurationf("insurance subscription %s has no coverage plan assigned", sub.PolicyNumber)
	}
	rules, err := s.rules.ListActiveByPlan(ctx, *sub.CoveragePlanID, at)
	if err != nil {
		return nil, fmt.Errorf("list coverage rules: %w", err)
	}
	// Rules outside their window are dropped even when the repository
	// returns them.
	active := make([]*CoverageRule, 0, len(rules))
	for _, r := range rules {
		if r.InWindow(at) {
			active = append(active, r)
		}
	}
	return active, nil
}

// ClaimCount returns the number of claims recorded for the service template
// under the subscription within the calendar year of the given date.
func (s *Service) ClaimCount(ctx context.Context, serviceTemplate string, subscriptionID uuid.UUID, at time.Time) (int, error) {
	from := time.Date(at.Year(), time.January, 1, 0, 0, 0, 0, at.Location())
	to := time.Date(at.Year(), time.December, 31, 23, 59, 59, 0, at.Location())
	n, err := s.claims.CountByTemplateAndSubscription(ctx, serviceTemplate, subscriptionID, from, to)
	if err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return n, nil
}

func (s *Service) RecordClaim(ctx context.Context, cl *Claim) error {
	if cl.ServiceTemplate == "" {
		return apperr.Validation("service_template is required")
	}
	if cl.SubscriptionID == uuid.Nil {
		return apperr.Validation("subscription_id is required")
	}
	if cl.PostingDate.IsZero() {
		cl.PostingDate = s.now()
	}
	if cl.Status == "" {
		cl.Status = "Submitted"
	}
	return s.claims.Create(ctx, cl)
}

func (s *Service) GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "insurance subscription %s not found", id)
	}
	return sub, nil
}

func (s *Service) ListClaims(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return s.claims.ListBySubscription(ctx, subscriptionID, limit, offset)
}
