package station

// priceMode determines how money is extracted from a row.
type priceMode int

const (
	// pricePerKg means the sheet records a unit price; the row total is
	// derived from it and the weight.
	pricePerKg priceMode = iota
	// priceTotal means the sheet records the total paid for the lot.
	priceTotal
)

// Profile describes the column layout of one delivery sheet format.
// Adding a new station template is just adding a Profile here.
type Profile struct {
	Name        string
	DateCol     string
	SupplierCol string
	WeightCol   string
	PriceMode   priceMode
	PriceCol    string
	BatchCol    string // optional
	HumidityCol string // optional
	NotesCol    string // optional
}

// requiredCols returns the columns that must be present for this
// profile to match. Batch, humidity and notes are picked up when
// present but never required.
func (p Profile) requiredCols() []string {
	return []string{p.DateCol, p.SupplierCol, p.WeightCol, p.PriceCol}
}

// profiles is the ordered list of sheet formats to try during
// auto-detection. More specific profiles come first to avoid false
// matches.
var profiles = []Profile{
	{
		Name:        "station",
		DateCol:     "Date",
		SupplierCol: "Supplier",
		WeightCol:   "Weight (kg)",
		PriceMode:   pricePerKg,
		PriceCol:    "Price/kg",
		BatchCol:    "Batch No",
		HumidityCol: "Humidity (%)",
		NotesCol:    "Remarks",
	},
	{
		Name:        "union",
		DateCol:     "Delivery Date",
		SupplierCol: "Cooperative",
		WeightCol:   "Net Weight",
		PriceMode:   priceTotal,
		PriceCol:    "Total Paid",
		BatchCol:    "Lot",
	},
	{
		Name:        "legacy",
		DateCol:     "Date",
		SupplierCol: "Farmer",
		WeightCol:   "Weight",
		PriceMode:   priceTotal,
		PriceCol:    "Amount",
	},
}
