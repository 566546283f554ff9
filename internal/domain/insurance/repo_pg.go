package insurance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pms/pms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type subscriptionRepoPG struct{ pool *pgxpool.Pool }

func NewSubscriptionRepoPG(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepoPG{pool: pool}
}

func (r *subscriptionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *subscriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	var s Subscription
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, policy_number, insurer_company, coverage_plan_id,
			active, created_at, updated_at
		FROM insurance_subscription WHERE id = $1`, id).
		Scan(&s.ID, &s.PatientID, &s.PolicyNumber, &s.InsurerCompany, &s.CoveragePlanID,
			&s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type coverageRuleRepoPG struct{ pool *pgxpool.Pool }

func NewCoverageRuleRepoPG(pool *pgxpool.Pool) CoverageRuleRepository {
	return &coverageRuleRepoPG{pool: pool}
}

func (r *coverageRuleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *coverageRuleRepoPG) ListActiveByPlan(ctx context.Context, planID uuid.UUID, at time.Time) ([]*CoverageRule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, plan_id, service_template, start_date, end_date, active, max_claims_per_year
		FROM coverage_rule
		WHERE plan_id = $1 AND active AND start_date <= $2 AND end_date >= $2
		ORDER BY service_template`, planID, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CoverageRule
	for rows.Next() {
		var cr CoverageRule
		if err := rows.Scan(&cr.ID, &cr.PlanID, &cr.ServiceTemplate, &cr.StartDate,
			&cr.EndDate, &cr.Active, &cr.MaxClaimsPerYear); err != nil {
			return nil, err
		}
		items = append(items, &cr)
	}
	return items, rows.Err()
}

type claimRepoPG struct{ pool *pgxpool.Pool }

func NewClaimRepoPG(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepoPG{pool: pool}
}

func (r *claimRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *claimRepoPG) Create(ctx context.Context, cl *Claim) error {
	cl.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance_claim (id, service_template, subscription_id, posting_date, amount, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		cl.ID, cl.ServiceTemplate, cl.SubscriptionID, cl.PostingDate, cl.Amount, cl.Status)
	return err
}

func (r *claimRepoPG) CountByTemplateAndSubscription(ctx context.Context, template string, subscriptionID uuid.UUID, from, to time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM insurance_claim
		WHERE service_template = $1 AND subscription_id = $2
			AND posting_date BETWEEN $3 AND $4`,
		template, subscriptionID, from, to).Scan(&n)
	return n, err
}

func (r *claimRepoPG) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM insurance_claim WHERE subscription_id = $1`, subscriptionID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, service_template, subscription_id, posting_date, amount, status, created_at
		FROM insurance_claim WHERE subscription_id = $1
		ORDER BY posting_date DESC LIMIT $2 OFFSET $3`, subscriptionID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		var cl Claim
		if err := rows.Scan(&cl.ID, &cl.ServiceTemplate, &cl.SubscriptionID, &cl.PostingDate,
			&cl.Amount, &cl.Status, &cl.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &cl)
	}
	return items, total, rows.Err()
}
