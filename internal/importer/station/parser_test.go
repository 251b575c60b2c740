package station_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/davitt-io/granary/internal/importer/station"
	"github.com/davitt-io/granary/internal/record"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParser_StationSheet(t *testing.T) {
	csv := `Sidama Washing Station - Delivery Book
Season,2023/24

Date,Supplier,Batch No,Weight (kg),Humidity (%),Price/kg,Remarks
2024-06-01,Sidama Union,B-71,1200,11.5,310,first pick
2024-06-02,Guji Station,B-72,"1,850",10.8,295,
`

	p := station.NewParser()
	params, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 2)

	first := params[0]
	assert.Equal(t, record.KindReceipt, first.Kind)
	assert.Equal(t, record.StatusPending, first.Status)
	assert.Equal(t, date(2024, 6, 1), first.CreatedAt)
	assert.Equal(t, "Sidama Union", first.RawSupplier)
	assert.Equal(t, "B-71", first.BatchID)
	assert.Equal(t, "first pick", first.Notes)
	require.NotNil(t, first.WeightKg)
	assert.InDelta(t, 1200, *first.WeightKg, 0.001)
	require.NotNil(t, first.Humidity)
	assert.InDelta(t, 11.5, *first.Humidity, 0.001)
	require.NotNil(t, first.BuyingPrice)
	assert.True(t, first.BuyingPrice.Equal(decimal.RequireFromString("310")))
	require.NotNil(t, first.Amount)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("372000")))

	second := params[1]
	require.NotNil(t, second.WeightKg)
	assert.InDelta(t, 1850, *second.WeightKg, 0.001)
}

func TestParser_StationSheetRequiredColumnsOnly(t *testing.T) {
	csv := `Date,Supplier,Weight (kg),Price/kg
2024-06-01,Sidama Union,1200,310
`

	p := station.NewParser()
	params, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)

	got := params[0]
	assert.Equal(t, "Sidama Union", got.RawSupplier)
	assert.Empty(t, got.BatchID)
	assert.Empty(t, got.Notes)
	assert.Nil(t, got.Humidity)
	require.NotNil(t, got.Amount)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("372000")))
}

func TestParser_UnionSheet(t *testing.T) {
	csv := `Delivery Date,Cooperative,Lot,Net Weight,Total Paid
01/06/2024,Hawassa Coop,L-9,540,"ETB 167,400"
`

	p := station.NewParser()
	params, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)

	got := params[0]
	assert.Equal(t, date(2024, 6, 1), got.CreatedAt)
	assert.Equal(t, "Hawassa Coop", got.RawSupplier)
	assert.Equal(t, "L-9", got.BatchID)
	assert.Nil(t, got.BuyingPrice)
	require.NotNil(t, got.Amount)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("167400")))
	assert.Nil(t, got.Humidity)
}

func TestParser_LegacySheet(t *testing.T) {
	csv := `Date,Farmer,Weight,Amount
02-06-2024,Abebe Bekele,85,26350
`

	p := station.NewParser()
	params, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)

	got := params[0]
	assert.Equal(t, date(2024, 6, 2), got.CreatedAt)
	assert.Equal(t, "Abebe Bekele", got.RawSupplier)
	assert.Empty(t, got.BatchID)
	require.NotNil(t, got.Amount)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("26350")))
}

func TestParser_Windows1252Encoding(t *testing.T) {
	utf8CSV := "Date,Farmer,Weight,Amount\n2024-06-01,Café Hawassa,100,31000\n"

	encoder := charmap.Windows1252.NewEncoder()
	latinBytes, err := encoder.Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	p := station.NewParser()
	params, err := p.Parse(bytes.NewReader(latinBytes))
	require.NoError(t, err)
	require.Len(t, params, 1)

	assert.Equal(t, "Café Hawassa", params[0].RawSupplier)
}

func TestParser_DifferentColumnOrder(t *testing.T) {
	csv := `Random,MetaData
Weight (kg),Price/kg,Supplier,Date,Batch No,Ignored
1200,310,Sidama Union,2024-06-01,B-71,XXX
`

	p := station.NewParser()
	params, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)

	assert.Equal(t, "Sidama Union", params[0].RawSupplier)
	assert.Equal(t, "B-71", params[0].BatchID)
}

func TestParser_EmptyFile(t *testing.T) {
	p := station.NewParser()
	_, err := p.Parse(strings.NewReader(""))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no matching sheet format")
}

func TestParser_HeaderOnly(t *testing.T) {
	csv := `Date,Farmer,Weight,Amount`

	p := station.NewParser()
	params, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestParser_MissingSupplier(t *testing.T) {
	csv := `Date,Farmer,Weight,Amount
2024-06-01,,100,31000
`

	p := station.NewParser()
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "supplier")
}

func TestParser_SkipsFooterRows(t *testing.T) {
	csv := `Date,Farmer,Weight,Amount
2024-06-01,Abebe Bekele,85,26350
Total,,85,26350
`

	p := station.NewParser()
	params, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)
}

func TestParser_SkipsZeroPriceRows(t *testing.T) {
	csv := `Date,Farmer,Weight,Amount
2024-06-01,Abebe Bekele,85,0
2024-06-02,Guji Station,120,37200
`

	p := station.NewParser()
	params, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)

	assert.Equal(t, "Guji Station", params[0].RawSupplier)
}
