package insurance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
}

type CoverageRuleRepository interface {
	// ListActiveByPlan returns rules for the plan that are flagged active and
	// whose [start_date, end_date] window contains the given date.
	ListActiveByPlan(ctx context.Context, planID uuid.UUID, at time.Time) ([]*CoverageRule, error)
}

type ClaimRepository interface {
	Create(ctx context.Context, cl *Claim) error
	// CountByTemplateAndSubscription counts claims for (template, subscription)
	// posted within [from, to], boundaries inclusive.
	CountByTemplateAndSubscription(ctx context.Context, template string, subscriptionID uuid.UUID, from, to time.Time) (int, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]*Claim, int, error)
}
