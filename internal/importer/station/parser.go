package station

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/davitt-io/granary/internal/encoding"
	"github.com/davitt-io/granary/internal/record"
)

// Parser reads washing-station delivery sheets exported as CSV and
// produces receipt params. It auto-detects which sheet template is in
// use by matching column headers against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]record.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching sheet format found: expected columns for station, union, or legacy")
	}

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// matchesProfile checks if all required columns of a profile are present.
func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts receipts from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file
// (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]record.CreateParams, error) {
	var params []record.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := parseDate(row, cols[p.DateCol])
		if !ok {
			// Empty or unparseable date: footer, subtotal or blank row.
			continue
		}

		supplier := cellValue(row, cols[p.SupplierCol])
		if supplier == "" {
			return nil, fmt.Errorf("row %d: missing supplier", rowNum)
		}

		weight, err := parseMeasure(cellValue(row, cols[p.WeightCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: weight: %w", rowNum, err)
		}

		price, amount, ok := parsePrice(p, cols, row, weight)
		if !ok {
			continue
		}

		cp := record.CreateParams{
			Kind:         record.KindReceipt,
			Status:       record.StatusPending,
			SupplierName: supplier,
			RawSupplier:  supplier,
			WeightKg:     &weight,
			BuyingPrice:  price,
			Amount:       amount,
			CreatedAt:    date,
		}

		if v, ok := optionalCell(row, cols, p.BatchCol); ok {
			cp.BatchID = v
		}

		if v, ok := optionalCell(row, cols, p.NotesCol); ok {
			cp.Notes = v
		}

		if v, ok := optionalCell(row, cols, p.HumidityCol); ok && v != "" {
			if h, err := parseMeasure(v); err == nil {
				cp.Humidity = &h
			}
		}

		params = append(params, cp)
	}

	return params, nil
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// parseDate tries the layouts stations actually use. Returns false for
// empty cells or unparseable values.
func parseDate(row []string, idx int) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parsePrice extracts the unit price and lot total from a row based on
// the profile's price mode. Rows with a zero or unparseable price are
// skipped rather than failing the whole sheet.
func parsePrice(p *Profile, cols colIndex, row []string, weight float64) (price, amount *decimal.Decimal, ok bool) {
	cell := cellValue(row, cols[p.PriceCol])
	if cell == "" {
		return nil, nil, false
	}

	val, err := parseMoney(cell)
	if err != nil || val.IsZero() {
		return nil, nil, false
	}

	switch p.PriceMode {
	case pricePerKg:
		total := val.Mul(decimal.NewFromFloat(weight))
		return &val, &total, true
	case priceTotal:
		return nil, &val, true
	}

	return nil, nil, false
}

// optionalCell reads a column the profile declares but the sheet may
// omit. Only required columns are guaranteed a header match, so the
// index lookup has to be checked before use.
func optionalCell(row []string, cols colIndex, name string) (string, bool) {
	if name == "" {
		return "", false
	}

	idx, ok := cols[name]
	if !ok {
		return "", false
	}

	return cellValue(row, idx), true
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
