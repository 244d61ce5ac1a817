package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType is how a bill was settled. Pending bills count toward revenue
// but are broken out separately in reports.
type PaymentType string

const (
	PaymentUPI     PaymentType = "UPI"
	PaymentCash    PaymentType = "Cash"
	PaymentPending PaymentType = "Pending"
)

// Valid reports whether p is one of the three known payment types.
func (p PaymentType) Valid() bool {
	switch p {
	case PaymentUPI, PaymentCash, PaymentPending:
		return true
	}
	return false
}

// Period is a reporting time window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "all-time"
)

// ParsePeriod validates a period string from the outside world.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily, PeriodMonthly, PeriodAllTime:
		return Period(s), nil
	}
	return "", &ValidationError{Message: "period must be one of: daily, monthly, all-time"}
}

// Product is a catalog stock-keeping unit. Quantity is mutated only through
// the StockLedger or a guarded catalog edit; it can never go negative.
type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// BillItem is a line frozen at sale time. ProductID is a weak reference kept
// for reporting joins; name, SKU and price are snapshots and never re-read
// from the live catalog.
type BillItem struct {
	ID           int64           `json:"id"`
	BillID       int64           `json:"billId"`
	LineNumber   int             `json:"-"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Discount     decimal.Decimal `json:"discount"`
	Comment      string          `json:"comment,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Bill is a persisted sales transaction.
// Invariants: GrandTotal = Subtotal − TotalDiscount ≥ 0 and
// TotalDiscount = Σ item.Discount + GlobalDiscount.
type Bill struct {
	ID             int64           `json:"id"`
	BillNumber     string          `json:"billNumber"`
	CustomerName   string          `json:"customerName"`
	CustomerPhone  string          `json:"customerPhone"`
	Items          []BillItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	GlobalDiscount decimal.Decimal `json:"globalDiscount"`
	TotalDiscount  decimal.Decimal `json:"totalDiscount"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	PaymentType    PaymentType     `json:"paymentType"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CreditNoteItem freezes a returned line: selling price at the time of the
// original sale, cost price at the time of the return.
type CreditNoteItem struct {
	ID           int64           `json:"id"`
	CreditNoteID int64           `json:"creditNoteId"`
	LineNumber   int             `json:"-"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	Reason       string          `json:"reason,omitempty"`
}

// CreditNote is a partial-return document against a prior bill. Credit notes
// are append-only: created once, never edited or deleted.
type CreditNote struct {
	ID                 int64            `json:"id"`
	CreditNoteNumber   string           `json:"creditNoteNumber"`
	OriginalBillID     int64            `json:"originalBillId"`
	OriginalBillNumber string           `json:"originalBillNumber"`
	CustomerName       string           `json:"customerName"`
	CustomerPhone      string           `json:"customerPhone"`
	Items              []CreditNoteItem `json:"items"`
	TotalAmount        decimal.Decimal  `json:"totalAmount"`
	TotalProfitLoss    decimal.Decimal  `json:"totalProfitLoss"`
	Reason             string           `json:"reason,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// ShopSettings is the singleton counter-store record: shop identity plus the
// two strictly increasing document counters.
type ShopSettings struct {
	ShopName             string    `json:"shopName"`
	LastBillNumber       int64     `json:"lastBillNumber"`
	LastCreditNoteNumber int64     `json:"lastCreditNoteNumber"`
	UpdatedAt            time.Time `json:"updatedAt"`
}
