package record

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davitt-io/granary/internal/record"
)

type recordResponse struct {
	ID                  uuid.UUID        `json:"id"`
	Kind                record.Kind      `json:"kind"`
	Operation           record.Category  `json:"operation"`
	Status              record.Status    `json:"status"`
	Name                string           `json:"name,omitempty"`
	SupplierName        string           `json:"supplier_name,omitempty"`
	RawSupplier         string           `json:"raw_supplier,omitempty"`
	BuyerName           string           `json:"buyer_name,omitempty"`
	BuyerContact        string           `json:"buyer_contact,omitempty"`
	SourceLocation      string           `json:"source_location,omitempty"`
	DestinationLocation string           `json:"destination_location,omitempty"`
	PartnerTransfer     *bool            `json:"partner_transfer,omitempty"`
	SellingPrice        *decimal.Decimal `json:"selling_price,omitempty"`
	BuyingPrice         *decimal.Decimal `json:"buying_price,omitempty"`
	Humidity            *float64         `json:"humidity,omitempty"`
	WeightKg            *float64         `json:"weight_kg,omitempty"`
	Amount              *decimal.Decimal `json:"amount,omitempty"`
	BatchID             string           `json:"batch_id,omitempty"`
	BillNumber          string           `json:"bill_number,omitempty"`
	ExpenseType         string           `json:"expense_type,omitempty"`
	ExpenseDetails      string           `json:"expense_details,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           *time.Time       `json:"updated_at,omitempty"`
}

// toResponse derives the operation category so clients always see the
// classified value, not just the stored tag.
func toResponse(rec *record.Record) recordResponse {
	return recordResponse{
		ID:                  rec.ID,
		Kind:                rec.Kind,
		Operation:           record.Classify(rec),
		Status:              rec.Status,
		Name:                rec.Name,
		SupplierName:        rec.SupplierName,
		RawSupplier:         rec.RawSupplier,
		BuyerName:           rec.BuyerName,
		BuyerContact:        rec.BuyerContact,
		SourceLocation:      rec.SourceLocation,
		DestinationLocation: rec.DestinationLocation,
		PartnerTransfer:     rec.PartnerTransfer,
		SellingPrice:        rec.SellingPrice,
		BuyingPrice:         rec.BuyingPrice,
		Humidity:            rec.Humidity,
		WeightKg:            rec.WeightKg,
		Amount:              rec.Amount,
		BatchID:             rec.BatchID,
		BillNumber:          rec.BillNumber,
		ExpenseType:         rec.ExpenseType,
		ExpenseDetails:      rec.ExpenseDetails,
		Notes:               rec.Notes,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
}

func toResponseList(recs []*record.Record) []recordResponse {
	resp := make([]recordResponse, len(recs))
	for i, rec := range recs {
		resp[i] = toResponse(rec)
	}

	return resp
}
