package core

import "github.com/shopspring/decimal"

// lineSubtotal is quantity × sellingPrice − discount for one frozen line.
func lineSubtotal(quantity int, sellingPrice, discount decimal.Decimal) decimal.Decimal {
	return sellingPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount)
}

// computeBillTotals replays frozen line items into bill-level totals:
//
//	subtotal      = Σ quantity × sellingPrice
//	totalDiscount = Σ line discount + globalDiscount
//	grandTotal    = subtotal − totalDiscount
//
// The caller rejects the bill when grandTotal is negative.
func computeBillTotals(items []BillItem, globalDiscount decimal.Decimal) (subtotal, totalDiscount, grandTotal decimal.Decimal) {
	for _, it := range items {
		subtotal = subtotal.Add(it.SellingPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		totalDiscount = totalDiscount.Add(it.Discount)
	}
	totalDiscount = totalDiscount.Add(globalDiscount)
	grandTotal = subtotal.Sub(totalDiscount)
	return subtotal, totalDiscount, grandTotal
}

// validateBillItems checks the per-line input constraints shared by bill
// create and update: quantity ≥ 1, selling price ≥ 0, discount ≥ 0.
func validateBillItems(items []BillItemInput) error {
	if len(items) == 0 {
		return validationf("at least one item is required")
	}
	for i, it := range items {
		if it.Quantity < 1 {
			return validationf("item %d: quantity must be greater than 0", i+1)
		}
		if it.SellingPrice.IsNegative() {
			return validationf("item %d: selling price cannot be negative", i+1)
		}
		if it.Discount.IsNegative() {
			return validationf("item %d: discount cannot be negative", i+1)
		}
	}
	return nil
}
