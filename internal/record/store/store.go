package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davitt-io/granary/internal/record"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectRecordColumns = `
	r.id, r.kind, r.operation, r.status, r.name,
	r.supplier_name, r.raw_supplier, r.buyer_name, r.buyer_contact,
	r.source_location, r.destination_location, r.partner_transfer,
	r.selling_price, r.buying_price, r.humidity, r.weight_kg, r.amount,
	r.batch_id, r.bill_number, r.expense_type, r.expense_details, r.notes,
	r.created_at, r.updated_at, r.deleted_at
`

// scanRecord reads one row in selectRecordColumns order into a Record.
func scanRecord(s scanner) (*record.Record, error) {
	var rec record.Record

	var kindStr, operationStr, statusStr string

	var partner sql.NullBool

	var sellingPrice, buyingPrice, amount decimal.NullDecimal

	var humidity, weightKg sql.NullFloat64

	if err := s.Scan(
		&rec.ID, &kindStr, &operationStr, &statusStr, &rec.Name,
		&rec.SupplierName, &rec.RawSupplier, &rec.BuyerName, &rec.BuyerContact,
		&rec.SourceLocation, &rec.DestinationLocation, &partner,
		&sellingPrice, &buyingPrice, &humidity, &weightKg, &amount,
		&rec.BatchID, &rec.BillNumber, &rec.ExpenseType, &rec.ExpenseDetails, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt,
	); err != nil {
		return nil, err
	}

	kind, ok := record.ParseKind(kindStr)
	if !ok {
		return nil, fmt.Errorf("record %s: unknown kind %q", rec.ID, kindStr)
	}

	rec.Kind = kind

	status, ok := record.ParseStatus(statusStr)
	if !ok {
		return nil, fmt.Errorf("record %s: unknown status %q", rec.ID, statusStr)
	}

	rec.Status = status

	if operationStr != "" {
		// A tag outside the known categories is dropped so
		// classification falls back to inferring from the other fields.
		op, ok := record.ParseCategory(operationStr)
		if !ok {
			slog.Warn("record carries unknown operation tag, ignoring",
				"id", rec.ID, "operation", operationStr)
		}

		rec.Operation = op
	}

	if partner.Valid {
		rec.PartnerTransfer = &partner.Bool
	}

	if sellingPrice.Valid {
		rec.SellingPrice = &sellingPrice.Decimal
	}

	if buyingPrice.Valid {
		rec.BuyingPrice = &buyingPrice.Decimal
	}

	if amount.Valid {
		rec.Amount = &amount.Decimal
	}

	if humidity.Valid {
		rec.Humidity = &humidity.Float64
	}

	if weightKg.Valid {
		rec.WeightKg = &weightKg.Float64
	}

	return &rec, nil
}

const insertRecordQuery = `
	INSERT INTO records (
		kind, operation, status, name,
		supplier_name, raw_supplier, buyer_name, buyer_contact,
		source_location, destination_location, partner_transfer,
		selling_price, buying_price, humidity, weight_kg, amount,
		batch_id, bill_number, expense_type, expense_details, notes,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, NOW())
	RETURNING id, created_at, updated_at
`

func insertArgs(rec *record.Record) []any {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	return []any{
		rec.Kind, rec.Operation, rec.Status, rec.Name,
		rec.SupplierName, rec.RawSupplier, rec.BuyerName, rec.BuyerContact,
		rec.SourceLocation, rec.DestinationLocation, rec.PartnerTransfer,
		rec.SellingPrice, rec.BuyingPrice, rec.Humidity, rec.WeightKg, rec.Amount,
		rec.BatchID, rec.BillNumber, rec.ExpenseType, rec.ExpenseDetails, rec.Notes,
		rec.CreatedAt,
	}
}

func (s *Store) CreateRecord(ctx context.Context, rec *record.Record) error {
	err := s.db.QueryRowContext(ctx, insertRecordQuery, insertArgs(rec)...).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating record: %w", err)
	}

	return nil
}

func (s *Store) GetRecord(ctx context.Context, id uuid.UUID) (*record.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM records r
		WHERE r.id = $1 AND r.deleted_at IS NULL`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, record.ErrNotFound
		}

		return nil, fmt.Errorf("getting record: %w", err)
	}

	return rec, nil
}

func (s *Store) ListRecords(ctx context.Context, filter record.ListFilter) ([]*record.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM records r
		WHERE r.deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.Kind != nil {
		query += fmt.Sprintf(" AND r.kind = $%d", argIdx)

		args = append(args, *filter.Kind)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND r.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND r.created_at >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND r.created_at <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY r.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []*record.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", err)
	}

	return recs, nil
}

func (s *Store) UpdateRecord(ctx context.Context, rec *record.Record) error {
	query := `
		UPDATE records
		SET operation = $1, status = $2, name = $3, supplier_name = $4,
			buyer_name = $5, buyer_contact = $6,
			source_location = $7, destination_location = $8, partner_transfer = $9,
			selling_price = $10, buying_price = $11, humidity = $12, weight_kg = $13, amount = $14,
			batch_id = $15, bill_number = $16, expense_type = $17, expense_details = $18, notes = $19,
			updated_at = NOW()
		WHERE id = $20 AND deleted_at IS NULL
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Operation, rec.Status, rec.Name, rec.SupplierName,
		rec.BuyerName, rec.BuyerContact,
		rec.SourceLocation, rec.DestinationLocation, rec.PartnerTransfer,
		rec.SellingPrice, rec.BuyingPrice, rec.Humidity, rec.WeightKg, rec.Amount,
		rec.BatchID, rec.BillNumber, rec.ExpenseType, rec.ExpenseDetails, rec.Notes,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status record.Status) error {
	query := `
		UPDATE records
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`

	_, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE records
		SET deleted_at = NOW()
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	return nil
}

func importLockKey(minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(minDate.Format(time.DateOnly)))
	h.Write([]byte{0})
	h.Write([]byte(maxDate.Format(time.DateOnly)))

	return int64(h.Sum64())
}

type importTx struct {
	tx *sql.Tx
}

// BeginImport opens a transaction holding an advisory lock over the
// sheet's date range, so two staff uploading the same sheet cannot both
// pass duplicate detection.
func (s *Store) BeginImport(ctx context.Context, minDate, maxDate time.Time) (record.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(minDate, maxDate)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, params []record.CreateParams) ([]*record.Record, error) {
	if len(params) == 0 {
		return nil, nil
	}

	type lookupKey struct {
		Date        string
		RawSupplier string
		BatchID     string
		WeightKg    float64
	}

	minDate := params[0].CreatedAt
	maxDate := params[0].CreatedAt
	keySet := make(map[lookupKey]struct{}, len(params))

	for _, p := range params {
		if p.CreatedAt.Before(minDate) {
			minDate = p.CreatedAt
		}

		if p.CreatedAt.After(maxDate) {
			maxDate = p.CreatedAt
		}

		k := lookupKey{
			Date:        p.CreatedAt.Format(time.DateOnly),
			RawSupplier: p.RawSupplier,
			BatchID:     p.BatchID,
		}
		if p.WeightKg != nil {
			k.WeightKg = *p.WeightKg
		}

		keySet[k] = struct{}{}
	}

	query := `SELECT ` + selectRecordColumns + `
		FROM records r
		WHERE r.deleted_at IS NULL AND r.created_at >= $1 AND r.created_at <= $2
		ORDER BY r.created_at ASC`

	rows, err := itx.tx.QueryContext(ctx, query, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []*record.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		k := lookupKey{
			Date:        rec.CreatedAt.Format(time.DateOnly),
			RawSupplier: rec.RawSupplier,
			BatchID:     rec.BatchID,
		}
		if rec.WeightKg != nil {
			k.WeightKg = *rec.WeightKg
		}

		_, found := keySet[k]
		if !found {
			continue
		}

		duplicates = append(duplicates, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return duplicates, nil
}

func (itx *importTx) CreateRecords(ctx context.Context, recs []*record.Record) error {
	for _, rec := range recs {
		err := itx.tx.QueryRowContext(ctx, insertRecordQuery, insertArgs(rec)...).
			Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("creating record: %w", err)
		}
	}

	return nil
}
