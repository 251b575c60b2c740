package record

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a record does not exist or is soft-deleted.
	ErrNotFound = errors.New("record not found")

	// ErrMissingSortField is returned when a sort key references a field
	// that is empty on one of the records being sorted. This indicates a
	// caller/config bug or a data-quality problem, not an engine failure.
	ErrMissingSortField = errors.New("record is missing the sort field")
)

// Kind identifies the originating table a record was entered through.
// The kind determines which fields are searchable and which field acts
// as the record's display name for sorting.
type Kind string

const (
	KindReceipt  Kind = "receipt"
	KindSale     Kind = "sale"
	KindTransfer Kind = "transfer"
	KindBill     Kind = "bill"
)

// Category is the business meaning assigned to a stock movement.
type Category string

const (
	CategoryReceiveNew    Category = "receive-new"
	CategorySellStock     Category = "sell-stock"
	CategoryRelocateStock Category = "relocate-stock"
	CategoryPartnerStock  Category = "partner-stock"
)

// Status represents the lifecycle state of a record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is the canonical shape every stock movement is mapped into
// before it reaches the classifier or the query engine. The entry tables
// have drifted over the years, so most fields are optional; adapters at
// the HTTP and store boundaries are responsible for producing valid
// enum values.
type Record struct {
	ID   uuid.UUID
	Kind Kind

	// Operation is the explicit category tag. Empty on rows created
	// before the column existed; Classify infers a category for those.
	Operation Category

	Status Status

	// Name is a free-text label ("Partner stock transfer batch 3").
	// It is the weakest classification signal and the designated sort
	// name for transfers.
	Name string

	SupplierName string
	// RawSupplier preserves the spelling from the delivery sheet before
	// any learned normalization was applied.
	RawSupplier string

	BuyerName    string
	BuyerContact string

	SourceLocation      string
	DestinationLocation string
	// PartnerTransfer is only reliably populated by the newer transfer
	// form; older rows leave it nil.
	PartnerTransfer *bool

	SellingPrice *decimal.Decimal
	BuyingPrice  *decimal.Decimal
	Humidity     *float64
	WeightKg     *float64
	Amount       *decimal.Decimal

	BatchID        string
	BillNumber     string
	ExpenseType    string
	ExpenseDetails string
	Notes          string

	// CreatedAt is the business timestamp every time filter runs
	// against. A zero value means the source row had no parseable date.
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}

// searchFields returns the fields the free-text filter matches against
// for this record's kind.
func (r *Record) searchFields() []string {
	switch r.Kind {
	case KindBill:
		return []string{r.BillNumber, r.SupplierName, r.ExpenseType, r.ExpenseDetails, r.Notes}
	case KindSale:
		return []string{r.BuyerName, r.BuyerContact, r.BatchID, r.Notes, r.Name}
	case KindTransfer:
		return []string{r.SourceLocation, r.DestinationLocation, r.BatchID, r.Notes, r.Name}
	default:
		return []string{r.SupplierName, r.BatchID, r.Notes, r.Name}
	}
}

// sortName returns the designated name field for name sorting and
// whether it is populated.
func (r *Record) sortName() (string, bool) {
	var name string

	switch r.Kind {
	case KindSale:
		name = r.BuyerName
	case KindTransfer:
		name = r.Name
	default:
		name = r.SupplierName
	}

	return name, strings.TrimSpace(name) != ""
}

// amountOrZero treats a missing amount as zero for sorting purposes.
func (r *Record) amountOrZero() decimal.Decimal {
	if r.Amount == nil {
		return decimal.Zero
	}

	return *r.Amount
}

// ParseKind validates a kind received at an adapter boundary.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindReceipt, KindSale, KindTransfer, KindBill:
		return k, true
	}

	return "", false
}

// ParseCategory validates an operation tag received at an adapter
// boundary. Tags are lowercased before matching; anything outside the
// four known categories is rejected so bad tags never reach the
// classifier as "explicit" evidence.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryReceiveNew, CategorySellStock, CategoryRelocateStock, CategoryPartnerStock:
		return c, true
	}

	return "", false
}

// ParseStatus validates a status received at an adapter boundary.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusCompleted, StatusFailed:
		return st, true
	}

	return "", false
}
