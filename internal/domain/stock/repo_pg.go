package stock

import (
	"context"

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository {
	return &itemRepoPG{pool: pool}
}

func (r *itemRepoPG) GetByCode(ctx context.Context, code string) (*Item, error) {
	var it Item
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, code, name, is_stock_item, created_at
		FROM item WHERE code = $1`, code).
		Scan(&it.ID, &it.Code, &it.Name, &it.IsStockItem, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

type medicationRepoPG struct{ pool *pgxpool.Pool }

func NewMedicationRepoPG(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

func (r *medicationRepoPG) GetByName(ctx context.Context, name string) (*Medication, error) {
	var m Medication
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, item_code, created_at
		FROM medication WHERE name = $1`, name).
		Scan(&m.ID, &m.Name, &m.ItemCode, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type serviceUnitRepoPG struct{ pool *pgxpool.Pool }

func NewServiceUnitRepoPG(pool *pgxpool.Pool) ServiceUnitRepository {
	return &serviceUnitRepoPG{pool: pool}
}

func (r *serviceUnitRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ServiceUnit, error) {
	var u ServiceUnit
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, company, warehouse, active, created_at
		FROM healthcare_service_unit WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Company, &u.Warehouse, &u.Active, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type ledgerRepoPG struct{ pool *pgxpool.Pool }

func NewLedgerRepoPG(pool *pgxpool.Pool) LedgerRepository {
	return &ledgerRepoPG{pool: pool}
}

func (r *ledgerRepoPG) SumQty(ctx context.Context, itemCode, warehouse string) (float64, error) {
	var qty float64
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(qty), 0) FROM stock_ledger_entry
		WHERE item_code = $1 AND warehouse = $2`, itemCode, warehouse).Scan(&qty)
	return qty, err
}

func (r *ledgerRepoPG) Record(ctx context.Context, e *LedgerEntry) error {
	e.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO stock_ledger_entry (id, item_code, warehouse, qty, posting_date)
		VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.ItemCode, e.Warehouse, e.Qty, e.PostingDate)
	return err
}
