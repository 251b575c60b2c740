package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders a nullable money value; missing values show as
// a dash so the tables stay aligned.
func FormatAmount(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}

	return d.StringFixed(2)
}

// FormatWeight renders a nullable weight in kilograms.
func FormatWeight(w *float64) string {
	if w == nil {
		return "-"
	}

	return decimal.NewFromFloat(*w).StringFixed(1)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
