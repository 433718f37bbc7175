package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_EmptyCart(t *testing.T) {
	totals := Compute(nil, decimal.Zero)

	subtotal, total, savings := totals.Display()
	assert.Equal(t, "0.00", subtotal)
	assert.Equal(t, "0.00", total)
	assert.Equal(t, "0.00", savings)
}

func TestCompute_NoCoupon(t *testing.T) {
	lines := []Line{
		NewLine("r1", 500, 1),
	}

	totals := Compute(lines, decimal.Zero)

	subtotal, total, savings := totals.Display()
	assert.Equal(t, "500.00", subtotal)
	assert.Equal(t, "500.00", total)
	assert.Equal(t, "0.00", savings)
}

func TestCompute_TenPercentOff(t *testing.T) {
	lines := []Line{
		NewLine("a", 60, 1),
		NewLine("b", 20, 2),
	}

	totals := Compute(lines, decimal.NewFromInt(10))

	subtotal, total, savings := totals.Display()
	assert.Equal(t, "100.00", subtotal)
	assert.Equal(t, "90.00", total)
	assert.Equal(t, "10.00", savings)
}

func TestCompute_TwentyPercentOff(t *testing.T) {
	lines := []Line{NewLine("r1", 500, 1)}

	totals := Compute(lines, decimal.NewFromInt(20))

	subtotal, total, savings := totals.Display()
	assert.Equal(t, "500.00", subtotal)
	assert.Equal(t, "400.00", total)
	assert.Equal(t, "100.00", savings)
}

func TestCompute_DiscountNeverCompounds(t *testing.T) {
	lines := []Line{NewLine("a", 100, 1)}

	// Applying the engine twice with the same discount must not stack:
	// the engine always starts from the raw lines.
	first := Compute(lines, decimal.NewFromInt(10))
	second := Compute(lines, decimal.NewFromInt(10))

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, "90.00", second.Total.StringFixed(2))
}

func TestCompute_InternalPrecisionUnrounded(t *testing.T) {
	// 33.33% of 10.01 produces more than two decimal places internally.
	lines := []Line{NewLine("a", 10.01, 1)}
	pct := decimal.RequireFromString("33.33")

	totals := Compute(lines, pct)

	// total = 10.01 * 0.6667 = 6.6736667
	require.True(t, totals.Total.Equal(decimal.RequireFromString("6.6736667")),
		"got %s", totals.Total.String())
	_, total, _ := totals.Display()
	assert.Equal(t, "6.67", total)
}

// Random add/remove sequences: subtotal must always equal the sum of
// unitPrice*quantity over the surviving lines.
func TestCompute_SubtotalProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		var lines []Line
		for op := 0; op < 30; op++ {
			if rng.Intn(3) > 0 || len(lines) == 0 {
				price := float64(rng.Intn(100000)) / 100
				qty := 1 + rng.Intn(9)
				lines = append(lines, NewLine("item", price, qty))
			} else {
				i := rng.Intn(len(lines))
				lines = append(lines[:i], lines[i+1:]...)
			}
		}

		want := decimal.Zero
		for _, l := range lines {
			want = want.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		totals := Compute(lines, decimal.Zero)
		require.True(t, totals.Subtotal.Equal(want),
			"run %d: subtotal %s, want %s", run, totals.Subtotal, want)
		require.True(t, totals.Total.Equal(want))
	}
}
