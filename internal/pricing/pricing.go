// Package pricing computes order totals. All arithmetic is decimal; amounts
// are rounded to cents only at combination points, never per line.
package pricing

import (
	"github.com/shopspring/decimal"

	"fooddupe/internal/model"
)

// Line is one cart entry priced from the product snapshot
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Quote is the computed monetary breakdown of an order
type Quote struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// Compute prices a cart:
//
//	subtotal = round(Σ(unit_price × quantity), 2)
//	delivery_fee = fee when type is DELIVERY, else 0
//	tax = round((subtotal + delivery_fee) × rate, 2)
//	total = subtotal + delivery_fee + tax
func Compute(lines []Line, orderType model.OrderType, deliveryFee, taxRate decimal.Decimal) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	fee := decimal.Zero
	if orderType == model.TypeDelivery {
		fee = deliveryFee.Round(2)
	}

	tax := subtotal.Add(fee).Mul(taxRate).Round(2)

	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
	}
}
