package station

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// parseMoney parses a money cell as written on the sheets. Thousands
// commas and a leading currency code are tolerated:
// "1,234.56" -> 1234.56, "ETB 310" -> 310.
func parseMoney(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "ETB"))
	clean = strings.ReplaceAll(clean, ",", "")

	return decimal.NewFromString(clean)
}

// parseMeasure parses a weight or humidity cell. Thousands commas and a
// trailing unit ("kg", "%") are tolerated.
func parseMeasure(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSuffix(clean, "%")
	clean = strings.TrimSuffix(clean, "kg")
	clean = strings.ReplaceAll(clean, ",", "")

	return strconv.ParseFloat(strings.TrimSpace(clean), 64)
}
