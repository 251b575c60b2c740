package record_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/davitt-io/granary/internal/record"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

func TestClassify(t *testing.T) {
	type testCase struct {
		name string
		rec  record.Record
		want record.Category
	}

	tests := []testCase{
		{
			name: "ExplicitTagWinsOverEverything",
			rec: record.Record{
				Operation:           record.CategorySellStock,
				BuyerName:           "Hadnet Trading",
				SourceLocation:      "Adama warehouse",
				DestinationLocation: "Mojo cold room",
				BuyingPrice:         decPtr("310.00"),
				Name:                "Partner stock transfer",
			},
			want: record.CategorySellStock,
		},
		{
			name: "BothEndpointsWithPartnerFlag",
			rec: record.Record{
				SourceLocation:      "Adama warehouse",
				DestinationLocation: "Sidama union store",
				PartnerTransfer:     boolPtr(true),
			},
			want: record.CategoryPartnerStock,
		},
		{
			name: "BothEndpointsWithoutPartnerFlag",
			rec: record.Record{
				SourceLocation:      "Adama warehouse",
				DestinationLocation: "Mojo cold room",
			},
			want: record.CategoryRelocateStock,
		},
		{
			name: "BothEndpointsPartnerFlagFalse",
			rec: record.Record{
				SourceLocation:      "Adama warehouse",
				DestinationLocation: "Mojo cold room",
				PartnerTransfer:     boolPtr(false),
			},
			want: record.CategoryRelocateStock,
		},
		{
			name: "BuyerNameImpliesSale",
			rec:  record.Record{BuyerName: "Hadnet Trading"},
			want: record.CategorySellStock,
		},
		{
			name: "SellingPriceImpliesSale",
			rec:  record.Record{SellingPrice: decPtr("410.50")},
			want: record.CategorySellStock,
		},
		{
			name: "SaleEvidenceBeatsReceiptEvidence",
			rec: record.Record{
				BuyerContact: "+251911000000",
				BuyingPrice:  decPtr("300.00"),
			},
			want: record.CategorySellStock,
		},
		{
			name: "HumidityImpliesReceipt",
			rec:  record.Record{Humidity: floatPtr(11.5)},
			want: record.CategoryReceiveNew,
		},
		{
			name: "DestinationOnlyFallsThroughEndpointRule",
			// Only one endpoint set: the structural transfer rule does
			// not fire and nothing else matches.
			rec:  record.Record{DestinationLocation: "Mojo cold room"},
			want: record.CategoryReceiveNew,
		},
		{
			name: "LexicalSale",
			rec:  record.Record{Name: "Quarterly sale, lot 12"},
			want: record.CategorySellStock,
		},
		{
			name: "LexicalPartnerBeatsTransfer",
			rec:  record.Record{Name: "Partner stock transfer batch 3"},
			want: record.CategoryPartnerStock,
		},
		{
			name: "LexicalRelocation",
			rec:  record.Record{Name: "Relocating parchment to Adama"},
			want: record.CategoryRelocateStock,
		},
		{
			name: "EmptyRecordDefaults",
			rec:  record.Record{},
			want: record.CategoryReceiveNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := record.Classify(&tt.rec)

			assert.Equal(t, tt.want, got)
		})
	}
}

// Classification must be total: every record resolves to one of the
// four categories, whatever mix of fields it carries.
func TestClassify_Totality(t *testing.T) {
	known := map[record.Category]bool{
		record.CategoryReceiveNew:    true,
		record.CategorySellStock:     true,
		record.CategoryRelocateStock: true,
		record.CategoryPartnerStock:  true,
	}

	recs := []record.Record{
		{},
		{Name: "???"},
		{SourceLocation: "somewhere"},
		{PartnerTransfer: boolPtr(true)},
		{Notes: "partner", BatchID: "B-12"},
		{Operation: record.CategoryRelocateStock, BuyerName: "x"},
		{WeightKg: floatPtr(1200), Amount: decPtr("0")},
	}

	for i := range recs {
		got := record.Classify(&recs[i])

		assert.True(t, known[got], "record %d classified as %q", i, got)
	}
}

func TestPartitionTransfers(t *testing.T) {
	recs := []*record.Record{
		{Name: "flagged", SourceLocation: "Adama", DestinationLocation: "Sidama", PartnerTransfer: boolPtr(true)},
		{Name: "no source", DestinationLocation: "Mojo cold room"},
		{Name: "partner in source", SourceLocation: "Partner depot Hawassa", DestinationLocation: "Adama"},
		{Name: "partner in notes", SourceLocation: "Adama", DestinationLocation: "Mojo", Notes: "Returned by PARTNER union"},
		{Name: "plain relocation", SourceLocation: "Adama", DestinationLocation: "Mojo"},
		{Name: "another relocation", SourceLocation: "Mojo", DestinationLocation: "Dire Dawa"},
	}

	partner, relocation := record.PartitionTransfers(recs)

	partnerNames := make([]string, 0, len(partner))
	for _, r := range partner {
		partnerNames = append(partnerNames, r.Name)
	}

	relocationNames := make([]string, 0, len(relocation))
	for _, r := range relocation {
		relocationNames = append(relocationNames, r.Name)
	}

	assert.Equal(t, []string{"flagged", "no source", "partner in source", "partner in notes"}, partnerNames)
	assert.Equal(t, []string{"plain relocation", "another relocation"}, relocationNames)

	// Disjoint and covering: every input lands in exactly one output.
	assert.Len(t, partner, len(recs)-len(relocation))

	seen := make(map[*record.Record]int)
	for _, r := range partner {
		seen[r]++
	}

	for _, r := range relocation {
		seen[r]++
	}

	for _, r := range recs {
		assert.Equal(t, 1, seen[r], "record %q", r.Name)
	}
}

func TestPartitionTransfers_Empty(t *testing.T) {
	partner, relocation := record.PartitionTransfers(nil)

	assert.Empty(t, partner)
	assert.Empty(t, relocation)
}
