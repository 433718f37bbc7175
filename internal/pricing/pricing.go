package pricing

import "github.com/shopspring/decimal"

// Line is one cart entry as the engine sees it. Prices are captured
// server-side at add time; the engine never looks them up.
type Line struct {
	ItemID    string
	UnitPrice decimal.Decimal
	Quantity  int
}

// NewLine converts a wire-format price into a Line.
func NewLine(itemID string, unitPrice float64, quantity int) Line {
	return Line{
		ItemID:    itemID,
		UnitPrice: decimal.NewFromFloat(unitPrice),
		Quantity:  quantity,
	}
}

// Totals carries unrounded amounts. Rounding to two decimal places happens
// only in the Display accessor, at the presentation boundary.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
	Savings  decimal.Decimal
}

func (t Totals) Display() (subtotal, total, savings string) {
	return t.Subtotal.StringFixed(2), t.Total.StringFixed(2), t.Savings.StringFixed(2)
}

var hundred = decimal.NewFromInt(100)

// Compute derives subtotal, total and savings from the given lines and a
// percentage discount (zero when no coupon is applied). The discount applies
// to the whole subtotal and never compounds. Pure function, no I/O, no error:
// invalid quantities are rejected before they get here.
func Compute(lines []Line, discountPct decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	total := subtotal
	if discountPct.IsPositive() {
		total = subtotal.Mul(hundred.Sub(discountPct)).Div(hundred)
	}

	return Totals{
		Subtotal: subtotal,
		Total:    total,
		Savings:  subtotal.Sub(total),
	}
}
