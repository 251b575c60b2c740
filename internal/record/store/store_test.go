package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitt-io/granary/internal/record"
)

// stubRow feeds scanRecord fixed enum columns; every other destination
// keeps its zero value.
type stubRow struct {
	kind, operation, status string
}

func (r stubRow) Scan(dest ...any) error {
	*(dest[1].(*string)) = r.kind
	*(dest[2].(*string)) = r.operation
	*(dest[3].(*string)) = r.status

	return nil
}

func TestScanRecord_ValidEnums(t *testing.T) {
	rec, err := scanRecord(stubRow{kind: "receipt", operation: "sell-stock", status: "completed"})
	require.NoError(t, err)

	assert.Equal(t, record.KindReceipt, rec.Kind)
	assert.Equal(t, record.CategorySellStock, rec.Operation)
	assert.Equal(t, record.StatusCompleted, rec.Status)
}

func TestScanRecord_EmptyOperation(t *testing.T) {
	rec, err := scanRecord(stubRow{kind: "transfer", status: "pending"})
	require.NoError(t, err)

	assert.Empty(t, rec.Operation)
}

func TestScanRecord_UnknownOperationDropped(t *testing.T) {
	rec, err := scanRecord(stubRow{kind: "receipt", operation: "JUNK-TAG", status: "completed"})
	require.NoError(t, err)

	// The bad tag never reaches the classifier as explicit evidence, so
	// the record still lands in one of the four categories.
	assert.Empty(t, rec.Operation)
	assert.Equal(t, record.CategoryReceiveNew, record.Classify(rec))
}

func TestScanRecord_UnknownKind(t *testing.T) {
	_, err := scanRecord(stubRow{kind: "snack", status: "completed"})
	assert.ErrorContains(t, err, "unknown kind")
}

func TestScanRecord_UnknownStatus(t *testing.T) {
	_, err := scanRecord(stubRow{kind: "receipt", status: "done"})
	assert.ErrorContains(t, err, "unknown status")
}
