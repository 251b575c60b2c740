package record

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=record
type Repository interface {
	CreateRecord(ctx context.Context, rec *Record) error
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	UpdateRecord(ctx context.Context, rec *Record) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	ListRecords(ctx context.Context, filter ListFilter) ([]*Record, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error

	BeginImport(ctx context.Context, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Record, error)
	CreateRecords(ctx context.Context, recs []*Record) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo   Repository
	engine *Engine
}

func NewService(repo Repository, engine *Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

type CreateParams struct {
	Kind                Kind
	Operation           Category
	Status              Status
	Name                string
	SupplierName        string
	RawSupplier         string
	BuyerName           string
	BuyerContact        string
	SourceLocation      string
	DestinationLocation string
	PartnerTransfer     *bool
	SellingPrice        *decimal.Decimal
	BuyingPrice         *decimal.Decimal
	Humidity            *float64
	WeightKg            *float64
	Amount              *decimal.Decimal
	BatchID             string
	BillNumber          string
	ExpenseType         string
	ExpenseDetails      string
	Notes               string
	CreatedAt           time.Time
}

// ListFilter narrows the database fetch. Finer-grained filtering
// (search, relative ranges, sorting) happens in the query engine over
// the fetched snapshot.
type ListFilter struct {
	Kind      *Kind
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Record, error) {
	rec := paramsToRecord(params)
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetRecord(ctx, id)
}

func (s *Service) Update(ctx context.Context, rec *Record) error {
	return s.repo.UpdateRecord(ctx, rec)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRecord(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	return s.repo.ListRecords(ctx, filter)
}

// Query fetches a snapshot matching the coarse filter and runs the
// in-memory engine over it.
func (s *Service) Query(ctx context.Context, filter ListFilter, criteria Criteria) ([]*Record, error) {
	records, err := s.repo.ListRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	return s.engine.Query(records, criteria)
}

// PartitionTransfers fetches all transfer records and splits them into
// partner transfers and internal relocations.
func (s *Service) PartitionTransfers(ctx context.Context) (partner, relocation []*Record, err error) {
	kind := KindTransfer

	records, err := s.repo.ListRecords(ctx, ListFilter{Kind: &kind})
	if err != nil {
		return nil, nil, fmt.Errorf("listing transfers: %w", err)
	}

	partner, relocation = PartitionTransfers(records)

	return partner, relocation, nil
}

type ImportResult struct {
	Imported  []*Record
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Record
}

// dupKey identifies a delivery row well enough to catch the same sheet
// being uploaded twice. Weight is part of the key because one supplier
// can deliver several lots on the same day.
type dupKey struct {
	Date        string
	RawSupplier string
	BatchID     string
	WeightKg    float64
}

func paramsDupKey(p CreateParams) dupKey {
	k := dupKey{
		Date:        p.CreatedAt.Format(time.DateOnly),
		RawSupplier: p.RawSupplier,
		BatchID:     p.BatchID,
	}
	if p.WeightKg != nil {
		k.WeightKg = *p.WeightKg
	}

	return k
}

func recordDupKey(r *Record) dupKey {
	k := dupKey{
		Date:        r.CreatedAt.Format(time.DateOnly),
		RawSupplier: r.RawSupplier,
		BatchID:     r.BatchID,
	}
	if r.WeightKg != nil {
		k.WeightKg = *r.WeightKg
	}

	return k
}

// ImportBatch inserts a parsed delivery sheet, detecting rows that were
// already imported. When conflicts exist nothing is written; the caller
// decides which of the remaining rows to confirm via CreateBatch.
func (s *Service) ImportBatch(ctx context.Context, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*Record, len(duplicates))
	for _, d := range duplicates {
		lookup[recordDupKey(d)] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[paramsDupKey(p)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	recs := paramsToRecords(newParams)
	if err := itx.CreateRecords(ctx, recs); err != nil {
		return nil, fmt.Errorf("create records: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: recs}, nil
}

// CreateBatch inserts records without duplicate detection, used when
// the caller has already reviewed conflicts.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]*Record, error) {
	if len(params) == 0 {
		return nil, nil
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	recs := paramsToRecords(params)
	if err := itx.CreateRecords(ctx, recs); err != nil {
		return nil, fmt.Errorf("create records: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return recs, nil
}

func dateRange(params []CreateParams) (time.Time, time.Time) {
	minDate := params[0].CreatedAt
	maxDate := params[0].CreatedAt

	for _, p := range params[1:] {
		if p.CreatedAt.Before(minDate) {
			minDate = p.CreatedAt
		}

		if p.CreatedAt.After(maxDate) {
			maxDate = p.CreatedAt
		}
	}

	return minDate, maxDate
}

func paramsToRecord(p CreateParams) *Record {
	return &Record{
		Kind:                p.Kind,
		Operation:           p.Operation,
		Status:              p.Status,
		Name:                p.Name,
		SupplierName:        p.SupplierName,
		RawSupplier:         p.RawSupplier,
		BuyerName:           p.BuyerName,
		BuyerContact:        p.BuyerContact,
		SourceLocation:      p.SourceLocation,
		DestinationLocation: p.DestinationLocation,
		PartnerTransfer:     p.PartnerTransfer,
		SellingPrice:        p.SellingPrice,
		BuyingPrice:         p.BuyingPrice,
		Humidity:            p.Humidity,
		WeightKg:            p.WeightKg,
		Amount:              p.Amount,
		BatchID:             p.BatchID,
		BillNumber:          p.BillNumber,
		ExpenseType:         p.ExpenseType,
		ExpenseDetails:      p.ExpenseDetails,
		Notes:               p.Notes,
		CreatedAt:           p.CreatedAt,
	}
}

func paramsToRecords(params []CreateParams) []*Record {
	recs := make([]*Record, len(params))
	for i, p := range params {
		recs[i] = paramsToRecord(p)
	}

	return recs
}
