package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// BillSummary is the per-bill entry in a payment-type breakdown.
type BillSummary struct {
	BillNumber   string          `json:"billNumber"`
	Amount       decimal.Decimal `json:"amount"`
	CustomerName string          `json:"customerName"`
	Date         time.Time       `json:"date"`
}

// SoldItem is one row of the item-wise sold-quantity breakdown, grouped by
// product and sorted descending by quantity. CostPrice is the product's
// current cost price (zero if the product has since been deleted).
type SoldItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	CostPrice   decimal.Decimal `json:"costPrice"`
}

// SalesSummary aggregates bills and credit notes in the window.
// TotalCostOfGoodsSold uses the catalog's current cost prices, not frozen
// historical ones, so editing a cost price retroactively shifts past profit.
type SalesSummary struct {
	TotalBills                int                             `json:"totalBills"`
	TotalDiscounts            decimal.Decimal                 `json:"totalDiscounts"`
	GrossRevenue              decimal.Decimal                 `json:"grossRevenue"`
	TotalCostOfGoodsSold      decimal.Decimal                 `json:"totalCostOfGoodsSold"`
	TotalProfit               decimal.Decimal                 `json:"totalProfit"`
	TotalCreditNoteAmount     decimal.Decimal                 `json:"totalCreditNoteAmount"`
	TotalCreditNoteProfitLoss decimal.Decimal                 `json:"totalCreditNoteProfitLoss"`
	NetRevenue                decimal.Decimal                 `json:"netRevenue"`
	BillsByPaymentType        map[PaymentType][]BillSummary   `json:"billsByPaymentType"`
	PaymentTotals             map[PaymentType]decimal.Decimal `json:"paymentTotals"`
	GrandTotal                decimal.Decimal                 `json:"grandTotal"`
}

// InventorySummary mixes window-scoped sold quantities with the catalog's
// current stock position.
type InventorySummary struct {
	TotalItemsSold      int             `json:"totalItemsSold"`
	ItemsRemaining      int             `json:"itemsRemaining"`
	TotalInventoryValue decimal.Decimal `json:"totalInventoryValue"`
	ItemsSoldBreakdown  []SoldItem      `json:"itemsSoldBreakdown"`
}

// CashSummary is the cash position for the window.
type CashSummary struct {
	TotalSales            decimal.Decimal `json:"totalSales"`
	TotalDiscounts        decimal.Decimal `json:"totalDiscounts"`
	TotalCreditNoteAmount decimal.Decimal `json:"totalCreditNoteAmount"`
	CashInHand            decimal.Decimal `json:"cashInHand"`
}

// Report is the full reconciliation for one period.
type Report struct {
	Period    Period           `json:"period"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Sales     SalesSummary     `json:"sales"`
	Inventory InventorySummary `json:"inventory"`
	Cash      CashSummary      `json:"cash"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService replays bills, credit notes, and catalog cost data over a
// time window into reconciled summaries. Pure read side: no writes, no locks,
// safe to call repeatedly and concurrently.
type ReportingService interface {
	GetReport(ctx context.Context, period Period) (*Report, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

// PeriodWindow resolves a period to a concrete [start, end] window around now:
// daily from local midnight, monthly from the first of the month, all-time
// from the epoch. End is always now, so data created later cannot be in range.
func PeriodWindow(p Period, now time.Time) (start, end time.Time) {
	switch p {
	case PeriodDaily:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PeriodAllTime:
		start = time.Unix(0, 0)
	default:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	return start, now
}

func (s *reportingService) GetReport(ctx context.Context, period Period) (*Report, error) {
	start, end := PeriodWindow(period, time.Now())

	bills, err := s.billsInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	notes, err := s.creditNotesInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Period: period, Start: start, End: end}
	report.Sales = buildSalesSummary(bills, notes, products)
	report.Inventory = buildInventorySummary(bills, products)
	report.Cash = CashSummary{
		TotalSales:            report.Sales.GrossRevenue,
		TotalDiscounts:        report.Sales.TotalDiscounts,
		TotalCreditNoteAmount: report.Sales.TotalCreditNoteAmount,
		CashInHand:            report.Sales.GrossRevenue.Sub(report.Sales.TotalCreditNoteAmount),
	}
	return report, nil
}

// ── Aggregation ───────────────────────────────────────────────────────────────

func buildSalesSummary(bills []Bill, notes []CreditNote, products map[int64]Product) SalesSummary {
	sum := SalesSummary{
		BillsByPaymentType: map[PaymentType][]BillSummary{
			PaymentUPI:     {},
			PaymentCash:    {},
			PaymentPending: {},
		},
		PaymentTotals: map[PaymentType]decimal.Decimal{
			PaymentUPI:     {},
			PaymentCash:    {},
			PaymentPending: {},
		},
	}

	sum.TotalBills = len(bills)
	for _, b := range bills {
		sum.TotalDiscounts = sum.TotalDiscounts.Add(b.TotalDiscount)
		sum.GrossRevenue = sum.GrossRevenue.Add(b.GrandTotal)

		paymentType := b.PaymentType
		if !paymentType.Valid() {
			paymentType = PaymentCash
		}
		sum.BillsByPaymentType[paymentType] = append(sum.BillsByPaymentType[paymentType], BillSummary{
			BillNumber:   b.BillNumber,
			Amount:       b.GrandTotal,
			CustomerName: b.CustomerName,
			Date:         b.CreatedAt,
		})
		sum.PaymentTotals[paymentType] = sum.PaymentTotals[paymentType].Add(b.GrandTotal)

		// COGS from the live catalog; lines whose product is gone contribute
		// nothing, matching the weak-reference model.
		for _, it := range b.Items {
			if p, ok := products[it.ProductID]; ok {
				cost := p.CostPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
				sum.TotalCostOfGoodsSold = sum.TotalCostOfGoodsSold.Add(cost)
			}
		}
	}

	for _, cn := range notes {
		sum.TotalCreditNoteAmount = sum.TotalCreditNoteAmount.Add(cn.TotalAmount)
		sum.TotalCreditNoteProfitLoss = sum.TotalCreditNoteProfitLoss.Add(cn.TotalProfitLoss)
	}

	sum.TotalProfit = sum.GrossRevenue.Sub(sum.TotalCostOfGoodsSold).Sub(sum.TotalDiscounts)
	sum.NetRevenue = sum.GrossRevenue.Sub(sum.TotalCreditNoteAmount)
	sum.GrandTotal = sum.PaymentTotals[PaymentUPI].
		Add(sum.PaymentTotals[PaymentCash]).
		Add(sum.PaymentTotals[PaymentPending])
	return sum
}

func buildInventorySummary(bills []Bill, products map[int64]Product) InventorySummary {
	sold := make(map[int64]*SoldItem)
	totalItemsSold := 0
	for _, b := range bills {
		for _, it := range b.Items {
			totalItemsSold += it.Quantity
			entry, ok := sold[it.ProductID]
			if !ok {
				entry = &SoldItem{
					ProductID:   it.ProductID,
					ProductName: it.ProductName,
					SKU:         it.SKU,
				}
				if p, exists := products[it.ProductID]; exists {
					entry.CostPrice = p.CostPrice
				}
				sold[it.ProductID] = entry
			}
			entry.Quantity += it.Quantity
		}
	}

	breakdown := make([]SoldItem, 0, len(sold))
	for _, entry := range sold {
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Quantity != breakdown[j].Quantity {
			return breakdown[i].Quantity > breakdown[j].Quantity
		}
		return breakdown[i].ProductID < breakdown[j].ProductID
	})

	inv := InventorySummary{
		TotalItemsSold:     totalItemsSold,
		ItemsSoldBreakdown: breakdown,
	}
	for _, p := range products {
		inv.ItemsRemaining += p.Quantity
		inv.TotalInventoryValue = inv.TotalInventoryValue.Add(
			p.CostPrice.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return inv
}

// ── Data loading ──────────────────────────────────────────────────────────────

func (s *reportingService) billsInRange(ctx context.Context, start, end time.Time) ([]Bill, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, bill_number, customer_name, customer_phone, subtotal, global_discount,
		       total_discount, grand_total, payment_type, created_at, updated_at
		FROM bills
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills in range: %w", err)
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		var b Bill
		if err := rows.Scan(
			&b.ID, &b.BillNumber, &b.CustomerName, &b.CustomerPhone, &b.Subtotal,
			&b.GlobalDiscount, &b.TotalDiscount, &b.GrandTotal, &b.PaymentType,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}

	if err := attachBillItems(ctx, s.pool, bills); err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *reportingService) creditNotesInRange(ctx context.Context, start, end time.Time) ([]CreditNote, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, credit_note_number, original_bill_id, total_amount, total_profit_loss, created_at
		FROM credit_notes
		WHERE created_at >= $1 AND created_at <= $2
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit notes in range: %w", err)
	}
	defer rows.Close()

	var notes []CreditNote
	for rows.Next() {
		var cn CreditNote
		if err := rows.Scan(
			&cn.ID, &cn.CreditNoteNumber, &cn.OriginalBillID,
			&cn.TotalAmount, &cn.TotalProfitLoss, &cn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan credit note: %w", err)
		}
		notes = append(notes, cn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit notes: %w", err)
	}
	return notes, nil
}

func (s *reportingService) allProducts(ctx context.Context) (map[int64]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sku, name, quantity, cost_price, selling_price, created_at, updated_at
		FROM products
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]Product)
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.Quantity, &p.CostPrice, &p.SellingPrice,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}
