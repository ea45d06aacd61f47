package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fooddupe/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputePickup(t *testing.T) {
	// Two Margheritas at 12.50, picked up: no fee, 21% tax
	quote := Compute(
		[]Line{{UnitPrice: d("12.50"), Quantity: 2}},
		model.TypePickup,
		d("2.50"),
		d("0.21"),
	)

	assert.True(t, quote.Subtotal.Equal(d("25.00")), "subtotal = %s", quote.Subtotal)
	assert.True(t, quote.DeliveryFee.IsZero(), "fee = %s", quote.DeliveryFee)
	assert.True(t, quote.Tax.Equal(d("5.25")), "tax = %s", quote.Tax)
	assert.True(t, quote.Total.Equal(d("30.25")), "total = %s", quote.Total)
}

func TestComputeDelivery(t *testing.T) {
	// Same cart delivered: tax base includes the fee, 27.50 * 0.21 = 5.775
	// must round up to 5.78
	quote := Compute(
		[]Line{{UnitPrice: d("12.50"), Quantity: 2}},
		model.TypeDelivery,
		d("2.50"),
		d("0.21"),
	)

	assert.True(t, quote.Subtotal.Equal(d("25.00")), "subtotal = %s", quote.Subtotal)
	assert.True(t, quote.DeliveryFee.Equal(d("2.50")), "fee = %s", quote.DeliveryFee)
	assert.True(t, quote.Tax.Equal(d("5.78")), "tax = %s", quote.Tax)
	assert.True(t, quote.Total.Equal(d("33.28")), "total = %s", quote.Total)
}

func TestComputeRoundsAtCombinationOnly(t *testing.T) {
	// Rounding the lines individually would give 0.34 + 0.34 = 0.68; the
	// subtotal must be computed from the exact sum instead.
	quote := Compute(
		[]Line{
			{UnitPrice: d("0.335"), Quantity: 1},
			{UnitPrice: d("0.335"), Quantity: 1},
		},
		model.TypePickup,
		d("2.50"),
		d("0.21"),
	)

	assert.True(t, quote.Subtotal.Equal(d("0.67")), "subtotal = %s", quote.Subtotal)
}

func TestComputeTotalIsSumOfParts(t *testing.T) {
	carts := [][]Line{
		{{UnitPrice: d("9.99"), Quantity: 3}},
		{{UnitPrice: d("4.25"), Quantity: 1}, {UnitPrice: d("17.80"), Quantity: 2}},
		{{UnitPrice: d("0.01"), Quantity: 7}},
	}
	for _, lines := range carts {
		for _, orderType := range []model.OrderType{model.TypeDelivery, model.TypePickup, model.TypeDineIn} {
			quote := Compute(lines, orderType, d("2.50"), d("0.21"))
			sum := quote.Subtotal.Add(quote.DeliveryFee).Add(quote.Tax)
			assert.True(t, quote.Total.Equal(sum), "total %s != %s", quote.Total, sum)
			expectedTax := quote.Subtotal.Add(quote.DeliveryFee).Mul(d("0.21")).Round(2)
			assert.True(t, quote.Tax.Equal(expectedTax), "tax %s != %s", quote.Tax, expectedTax)
		}
	}
}

func TestComputeDineInHasNoFee(t *testing.T) {
	quote := Compute(
		[]Line{{UnitPrice: d("15.50"), Quantity: 1}},
		model.TypeDineIn,
		d("2.50"),
		d("0.21"),
	)
	assert.True(t, quote.DeliveryFee.IsZero())
}
