package core

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildShareMessage renders a bill as a WhatsApp-formatted text message
// (asterisks are WhatsApp bold). Amounts come straight from the frozen bill,
// never the live catalog.
func BuildShareMessage(shopName string, bill *Bill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", shopName)
	fmt.Fprintf(&b, "Bill No: %s\n", bill.BillNumber)
	fmt.Fprintf(&b, "Customer: %s\n", bill.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n\n", bill.CustomerPhone)
	b.WriteString("*Items:*\n")

	for i, it := range bill.Items {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, it.ProductName, it.SKU)
		fmt.Fprintf(&b, "   Qty: %d x ₹%s", it.Quantity, it.SellingPrice)
		if it.Discount.IsPositive() {
			fmt.Fprintf(&b, " - Discount: ₹%s", it.Discount)
		}
		fmt.Fprintf(&b, " = ₹%s\n", it.Subtotal)
		if it.Comment != "" {
			fmt.Fprintf(&b, "   Note: %s\n", it.Comment)
		}
	}

	fmt.Fprintf(&b, "\n*Subtotal:* ₹%s\n", bill.Subtotal)
	if bill.GlobalDiscount.IsPositive() {
		fmt.Fprintf(&b, "*Global Discount:* ₹%s\n", bill.GlobalDiscount)
	}
	if bill.TotalDiscount.IsPositive() {
		fmt.Fprintf(&b, "*Total Discount:* ₹%s\n", bill.TotalDiscount)
	}
	fmt.Fprintf(&b, "*Grand Total:* ₹%s\n\n", bill.GrandTotal)
	b.WriteString("Thank you for shopping")
	return b.String()
}

// WhatsAppLink builds a wa.me click-to-chat URL for an Indian phone number.
// Non-digit characters in the phone are stripped; the country code 91 is
// always prefixed.
func WhatsAppLink(customerPhone, message string) string {
	var digits strings.Builder
	for _, r := range customerPhone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return fmt.Sprintf("https://wa.me/91%s?text=%s", digits.String(), url.QueryEscape(message))
}
