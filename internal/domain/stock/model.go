package stock

import (
	"time"

	"github.com/google/uuid"
)

// Item maps to the item table. Only stock items participate in availability
// checks; service items pass through unchecked.
type Item struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	IsStockItem bool      `db:"is_stock_item" json:"is_stock_item"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Medication maps to the medication table. A medication dispensed from stock
// is linked to an item; the link may be absent for externally sourced drugs.
type Medication struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ItemCode  *string   `db:"item_code" json:"item_code,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ServiceUnit maps to the healthcare_service_unit table. The warehouse is the
// default dispensing location for encounters held at the unit.
type ServiceUnit struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Company   string    `db:"company" json:"company"`
	Warehouse *string   `db:"warehouse" json:"warehouse,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LedgerEntry maps to the stock_ledger_entry table. Quantities are signed:
// receipts positive, issues negative. Availability is the sum per
// (item, warehouse).
type LedgerEntry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ItemCode    string    `db:"item_code" json:"item_code"`
	Warehouse   string    `db:"warehouse" json:"warehouse"`
	Qty         float64   `db:"qty" json:"qty"`
	PostingDate time.Time `db:"posting_date" json:"posting_date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
