package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pms/pms/internal/platform/apperr"
	"github.com/pms/pms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

type serviceOrderRepoPG struct{ pool *pgxpool.Pool }

func NewServiceOrderRepoPG(pool *pgxpool.Pool) ServiceOrderRepository {
	return &serviceOrderRepoPG{pool: pool}
}

const orderCols = `id, patient_id, company, category, order_group_id, ordered_by,
	billing_item, insurance_subscription_id, insurer_company, prescribed,
	invoiced, doc_status, created_at`

func scanOrder(row pgx.Row) (*ServiceOrder, error) {
	var o ServiceOrder
	err := row.Scan(&o.ID, &o.PatientID, &o.Company, &o.Category, &o.OrderGroupID,
		&o.OrderedBy, &o.BillingItem, &o.InsuranceSubscriptionID, &o.InsurerCompany,
		&o.Prescribed, &o.Invoiced, &o.DocStatus, &o.CreatedAt)
	return &o, err
}

func (r *serviceOrderRepoPG) Create(ctx context.Context, o *ServiceOrder) error {
	o.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO healthcare_service_order (id, patient_id, company, category,
			order_group_id, ordered_by, billing_item, insurance_subscription_id,
			insurer_company, prescribed, invoiced, doc_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		o.ID, o.PatientID, o.Company, o.Category,
		o.OrderGroupID, o.OrderedBy, o.BillingItem, o.InsuranceSubscriptionID,
		o.InsurerCompany, o.Prescribed, o.Invoiced, o.DocStatus)
	return err
}

func (r *serviceOrderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ServiceOrder, error) {
	return scanOrder(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+orderCols+` FROM healthcare_service_order WHERE id = $1`, id))
}

func (r *serviceOrderRepoPG) ListInvoiceable(ctx context.Context, f InvoiceableFilter) ([]*ServiceOrder, error) {
	query := `SELECT ` + orderCols + ` FROM healthcare_service_order
		WHERE patient_id = $1 AND company = $2 AND category = $3
			AND order_group_id = $4 AND doc_status = 'submitted' AND NOT invoiced`
	args := []interface{}{f.PatientID, f.Company, f.Category, f.EncounterID}
	if f.Prescribed != nil {
		query += ` AND prescribed = $5`
		args = append(args, *f.Prescribed)
	}
	query += ` ORDER BY created_at`

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ServiceOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

func (r *serviceOrderRepoPG) MarkInvoiced(ctx context.Context, ids []uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE healthcare_service_order SET invoiced = TRUE
		WHERE id = ANY($1) AND NOT invoiced`, ids)
	return err
}

type customerRepoPG struct{ pool *pgxpool.Pool }

func NewCustomerRepoPG(pool *pgxpool.Pool) CustomerProvisioner {
	return &customerRepoPG{pool: pool}
}

func (r *customerRepoPG) EnsureCustomer(ctx context.Context, patientID uuid.UUID, company string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO billing_customer (id, patient_id, company)
		VALUES ($1,$2,$3)
		ON CONFLICT (patient_id, company) DO NOTHING`,
		uuid.New(), patientID, company)
	return err
}

type priceRepoPG struct{ pool *pgxpool.Pool }

func NewPriceRepoPG(pool *pgxpool.Pool) PriceResolver {
	return &priceRepoPG{pool: pool}
}

// Price looks the item up on the insurer's price list when the order is
// insurance-backed, the company default otherwise. A patient-specific entry
// on the list wins over the general one; an unpriced item resolves to 0 for
// manual pricing.
func (r *priceRepoPG) Price(ctx context.Context, subscriptionID *uuid.UUID, billingItem, company string, patientID uuid.UUID, insurerCompany string) (float64, error) {
	priceList := company
	if subscriptionID != nil && insurerCompany != "" {
		priceList = insurerCompany
	}
	var rate float64
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT rate FROM item_price
		WHERE item_code = $1 AND price_list = $2
			AND (patient_id = $3 OR patient_id IS NULL)
		ORDER BY patient_id NULLS LAST LIMIT 1`,
		billingItem, priceList, patientID).Scan(&rate)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return rate, err
}

type incomeAccountRepoPG struct{ pool *pgxpool.Pool }

func NewIncomeAccountRepoPG(pool *pgxpool.Pool) IncomeAccountResolver {
	return &incomeAccountRepoPG{pool: pool}
}

// IncomeAccount prefers the account configured for the ordering practitioner
// and falls back to the company-wide row.
func (r *incomeAccountRepoPG) IncomeAccount(ctx context.Context, practitionerID uuid.UUID, company string) (string, error) {
	var account string
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT account FROM income_account
		WHERE company = $1 AND (practitioner_id = $2 OR practitioner_id IS NULL)
		ORDER BY practitioner_id NULLS LAST LIMIT 1`,
		company, practitionerID).Scan(&account)
	if err == pgx.ErrNoRows {
		return "", apperr.Configurationf("no income account configured for company %s", company)
	}
	return account, err
}
