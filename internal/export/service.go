package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/davitt-io/granary/internal/record"
)

// Format selects the output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}

	return "", fmt.Errorf("unknown export format: %q", s)
}

// Column maps a header to the cell value extracted from a record.
type Column struct {
	Header string
	Value  func(r *record.Record) string
}

// DefaultColumns is the layout accountants receive. The operation
// column carries the derived category, not the raw tag.
func DefaultColumns() []Column {
	return []Column{
		{Header: "Date", Value: func(r *record.Record) string { return r.CreatedAt.Format(time.DateOnly) }},
		{Header: "Kind", Value: func(r *record.Record) string { return string(r.Kind) }},
		{Header: "Operation", Value: func(r *record.Record) string { return string(record.Classify(r)) }},
		{Header: "Status", Value: func(r *record.Record) string { return string(r.Status) }},
		{Header: "Supplier", Value: func(r *record.Record) string { return r.SupplierName }},
		{Header: "Buyer", Value: func(r *record.Record) string { return r.BuyerName }},
		{Header: "From", Value: func(r *record.Record) string { return r.SourceLocation }},
		{Header: "To", Value: func(r *record.Record) string { return r.DestinationLocation }},
		{Header: "Batch", Value: func(r *record.Record) string { return r.BatchID }},
		{Header: "Weight (kg)", Value: func(r *record.Record) string { return floatCell(r.WeightKg) }},
		{Header: "Humidity (%)", Value: func(r *record.Record) string { return floatCell(r.Humidity) }},
		{Header: "Amount", Value: func(r *record.Record) string { return decimalCell(r.Amount) }},
		{Header: "Notes", Value: func(r *record.Record) string { return r.Notes }},
	}
}

func floatCell(f *float64) string {
	if f == nil {
		return ""
	}

	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func decimalCell(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}

	return d.StringFixed(2)
}

// Service renders ledger snapshots as CSV or Excel workbooks.
type Service struct {
	records *record.Service
	columns []Column
}

func NewService(recordService *record.Service) *Service {
	return &Service{
		records: recordService,
		columns: DefaultColumns(),
	}
}

// Export writes records matching the filter and criteria to w in the
// requested format. Returns the number of exported rows.
func (s *Service) Export(ctx context.Context, filter record.ListFilter, criteria record.Criteria, format Format, w io.Writer) (int, error) {
	recs, err := s.records.Query(ctx, filter, criteria)
	if err != nil {
		return 0, fmt.Errorf("querying records: %w", err)
	}

	switch format {
	case FormatCSV:
		err = s.writeCSV(w, recs)
	case FormatXLSX:
		err = s.writeXLSX(w, recs)
	default:
		return 0, fmt.Errorf("unknown export format: %q", format)
	}

	if err != nil {
		return 0, err
	}

	return len(recs), nil
}

// ExportFile exports to a timestamped file in outputDir and returns
// its path.
func (s *Service) ExportFile(ctx context.Context, filter record.ListFilter, criteria record.Criteria, format Format, outputDir string) (string, int, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating output directory: %w", err)
	}

	name := fmt.Sprintf("records_%s.%s", time.Now().Format("20060102_150405"), format)
	path := filepath.Join(outputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	n, err := s.Export(ctx, filter, criteria, format, f)
	if err != nil {
		return "", 0, err
	}

	return path, n, nil
}

func (s *Service) writeCSV(w io.Writer, recs []*record.Record) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(s.columns))
	for i, col := range s.columns {
		header[i] = col.Header
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(s.columns))

	for _, rec := range recs {
		for i, col := range s.columns {
			row[i] = col.Value(rec)
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

const sheetName = "Records"

func (s *Service) writeXLSX(w io.Writer, recs []*record.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, col := range s.columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}

		if err := f.SetCellValue(sheetName, cell, col.Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for rowIdx, rec := range recs {
		for i, col := range s.columns {
			cell, err := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}

			if err := f.SetCellValue(sheetName, cell, col.Value(rec)); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

// GenerateSummary renders a per-category weight and amount breakdown,
// used by the upload confirmation screen and export receipts.
func (s *Service) GenerateSummary(recs []*record.Record) string {
	type bucket struct {
		count  int
		weight float64
		amount decimal.Decimal
	}

	buckets := make(map[record.Category]*bucket)

	for _, rec := range recs {
		cat := record.Classify(rec)

		b, ok := buckets[cat]
		if !ok {
			b = &bucket{}
			buckets[cat] = b
		}

		b.count++

		if rec.WeightKg != nil {
			b.weight += *rec.WeightKg
		}

		if rec.Amount != nil {
			b.amount = b.amount.Add(*rec.Amount)
		}
	}

	order := []record.Category{
		record.CategoryReceiveNew,
		record.CategorySellStock,
		record.CategoryRelocateStock,
		record.CategoryPartnerStock,
	}

	var sb strings.Builder

	for _, cat := range order {
		b, ok := buckets[cat]
		if !ok {
			continue
		}

		sb.WriteString(fmt.Sprintf("* %s | %d records | %.1f kg | %s ETB\n",
			cat, b.count, b.weight, b.amount.StringFixed(2)))
	}

	return sb.String()
}
