package encounter

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

type encounterRepoPG struct{ pool *pgxpool.Pool }

func NewEncounterRepoPG(pool *pgxpool.Pool) EncounterRepository {
	return &encounterRepoPG{pool: pool}
}

func (r *encounterRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const encounterCols = `id, patient_id, company, practitioner_id, doc_status,
	encounter_type, duplicate, insurance_subscription_id, service_unit_id,
	reference_encounter_id, from_encounter_id, encounter_date, owner,
	amended_from_id, created_at, updated_at, updated_by`

func (r *encounterRepoPG) scanHeader(row pgx.Row) (*Encounter, error) {
	var e Encounter
	err := row.Scan(&e.ID, &e.PatientID, &e.Company, &e.PractitionerID, &e.DocStatus,
		&e.EncounterType, &e.Duplicate, &e.InsuranceSubscriptionID, &e.ServiceUnitID,
		&e.ReferenceEncounterID, &e.FromEncounterID, &e.EncounterDate, &e.Owner,
		&e.AmendedFromID, &e.CreatedAt, &e.UpdatedAt, &e.UpdatedBy)
	return &e, err
}

func (r *encounterRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	e, err := r.scanHeader(r.conn(ctx).QueryRow(ctx,
		`SELECT `+encounterCols+` FROM patient_encounter WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadRows(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *encounterRepoPG) loadRows(ctx context.Context, e *Encounter) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, encounter_id, collection, service_code, quantity,
			override_subscription, comment, owner, created_at, updated_at, updated_by
		FROM prescription_row WHERE encounter_id = $1
		ORDER BY collection, position`, e.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	cols := e.collections()
	for rows.Next() {
		var pr PrescriptionRow
		var collection string
		if err := rows.Scan(&pr.ID, &pr.EncounterID, &collection, &pr.ServiceCode,
			&pr.Quantity, &pr.OverrideSubscription, &pr.Comment, &pr.Owner,
			&pr.CreatedAt, &pr.UpdatedAt, &pr.UpdatedBy); err != nil {
			return err
		}
		if slot, ok := cols[collection]; ok {
			*slot = append(*slot, pr)
		}
	}
	return rows.Err()
}

func (r *encounterRepoPG) Create(ctx context.Context, e *Encounter) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_encounter (id, patient_id, company, practitioner_id,
			doc_status, encounter_type, duplicate, insurance_subscription_id,
			service_unit_id, reference_encounter_id, from_encounter_id,
			encounter_date, owner, amended_from_id, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		e.ID, e.PatientID, e.Company, e.PractitionerID,
		e.DocStatus, e.EncounterType, e.Duplicate, e.InsuranceSubscriptionID,
		e.ServiceUnitID, e.ReferenceEncounterID, e.FromEncounterID,
		e.EncounterDate, e.Owner, e.AmendedFromID, e.UpdatedBy)
	if err != nil {
		return err
	}
	return r.insertRows(ctx, e)
}

func (r *encounterRepoPG) insertRows(ctx context.Context, e *Encounter) error {
	for collection, slot := range e.collections() {
		for i := range *slot {
			row := &(*slot)[i]
			row.ID = uuid.New()
			row.EncounterID = e.ID
			_, err := r.conn(ctx).Exec(ctx, `
				INSERT INTO prescription_row (id, encounter_id, collection, position,
					service_code, quantity, override_subscription, comment, owner, updated_by)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
				row.ID, e.ID, collection, i,
				row.ServiceCode, row.Quantity, row.OverrideSubscription,
				row.Comment, row.Owner, row.UpdatedBy)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *encounterRepoPG) Update(ctx context.Context, e *Encounter) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_encounter SET doc_status=$2, encounter_type=$3, duplicate=$4,
			insurance_subscription_id=$5, service_unit_id=$6,
			reference_encounter_id=$7, from_encounter_id=$8, encounter_date=$9,
			updated_by=$10, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.DocStatus, e.EncounterType, e.Duplicate,
		e.InsuranceSubscriptionID, e.ServiceUnitID,
		e.ReferenceEncounterID, e.FromEncounterID, e.EncounterDate,
		e.UpdatedBy)
	if err != nil {
		return err
	}
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription_row WHERE encounter_id = $1`, e.ID); err != nil {
		return err
	}
	return r.insertRows(ctx, e)
}

func (r *encounterRepoPG) SetDuplicate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient_encounter SET duplicate = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *encounterRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_encounter WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+encounterCols+` FROM patient_encounter
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Encounter
	for rows.Next() {
		e, err := r.scanHeader(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
