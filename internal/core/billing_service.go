package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BillItemInput is a requested line on a bill before it is frozen.
type BillItemInput struct {
	ProductID    int64
	Quantity     int
	SellingPrice decimal.Decimal
	Discount     decimal.Decimal
	Comment      string
}

// CreateBillInput is the input for creating a new bill.
type CreateBillInput struct {
	CustomerName   string
	CustomerPhone  string
	Items          []BillItemInput
	GlobalDiscount decimal.Decimal
	PaymentType    PaymentType // empty means Cash
}

// UpdateBillInput is the input for editing a bill. Items is a complete
// replacement list; empty customer fields and payment type keep the
// existing values.
type UpdateBillInput struct {
	CustomerName   string
	CustomerPhone  string
	Items          []BillItemInput
	GlobalDiscount decimal.Decimal
	PaymentType    PaymentType
}

// BillingService orchestrates the bill lifecycle. Every mutation runs in one
// database transaction: sequence allocation, the bill write and the stock
// deltas commit or roll back together, so a persisted bill can never coexist
// with an unapplied stock change.
type BillingService interface {
	CreateBill(ctx context.Context, input CreateBillInput) (*Bill, error)
	// UpdateBill replaces the bill's entire item list. Stock is first restored
	// to pre-sale levels, the new list is validated against the restored
	// stock, then the new sale is applied. Any failure rolls the bill's stock
	// footprint back to exactly what it was before the attempt.
	UpdateBill(ctx context.Context, billID int64, input UpdateBillInput) (*Bill, error)
	// DeleteBill unwinds a sale: full stock restore, then removal. No profit
	// is retroactively recorded.
	DeleteBill(ctx context.Context, billID int64) error

	GetBill(ctx context.Context, billID int64) (*Bill, error)
	GetBills(ctx context.Context) ([]Bill, error)
	// SearchBills matches bill number or customer phone, case-insensitively.
	SearchBills(ctx context.Context, query string) ([]Bill, error)
}

type billingService struct {
	pool      *pgxpool.Pool
	ledger    StockLedger
	sequences SequenceAllocator
}

func NewBillingService(pool *pgxpool.Pool, ledger StockLedger, sequences SequenceAllocator) BillingService {
	return &billingService{pool: pool, ledger: ledger, sequences: sequences}
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *billingService) CreateBill(ctx context.Context, input CreateBillInput) (*Bill, error) {
	if input.CustomerName == "" || input.CustomerPhone == "" {
		return nil, validationf("customer name and phone are required")
	}
	if err := validateBillItems(input.Items); err != nil {
		return nil, err
	}
	if input.GlobalDiscount.IsNegative() {
		return nil, validationf("global discount cannot be negative")
	}
	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = PaymentCash
	}
	if !paymentType.Valid() {
		return nil, validationf("payment type must be one of: UPI, Cash, Pending")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Freeze each requested line against the current catalog. The stock check
	// here produces the friendly available-vs-requested error up front; the
	// ledger's FOR UPDATE pass below is the authoritative guard.
	items, err := s.freezeItems(ctx, tx, input.Items, nil)
	if err != nil {
		return nil, err
	}

	subtotal, totalDiscount, grandTotal := computeBillTotals(items, input.GlobalDiscount)
	if grandTotal.IsNegative() {
		return nil, ErrNegativeGrandTotal
	}

	billNumber, err := s.sequences.NextBillNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	var billID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO bills (bill_number, customer_name, customer_phone, subtotal, global_discount, total_discount, grand_total, payment_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, billNumber, input.CustomerName, input.CustomerPhone,
		subtotal, input.GlobalDiscount, totalDiscount, grandTotal, paymentType,
	).Scan(&billID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertBillItems(ctx, tx, billID, items); err != nil {
		return nil, err
	}

	if err := s.ledger.ApplyTx(ctx, tx, saleDeltas(items)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit bill creation: %w", err)
	}

	return s.GetBill(ctx, billID)
}

// ── Update (delta reconciliation) ────────────────────────────────────────────

func (s *billingService) UpdateBill(ctx context.Context, billID int64, input UpdateBillInput) (*Bill, error) {
	if err := validateBillItems(input.Items); err != nil {
		return nil, err
	}
	if input.GlobalDiscount.IsNegative() {
		return nil, validationf("global discount cannot be negative")
	}
	if input.PaymentType != "" && !input.PaymentType.Valid() {
		return nil, validationf("payment type must be one of: UPI, Cash, Pending")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the bill row: concurrent updates/deletes of the same bill must not
	// interleave the restore-then-reapply sequence.
	var existing Bill
	err = tx.QueryRow(ctx, `
		SELECT id, customer_name, customer_phone, global_discount, payment_type
		FROM bills
		WHERE id = $1
		FOR UPDATE
	`, billID).Scan(&existing.ID, &existing.CustomerName, &existing.CustomerPhone,
		&existing.GlobalDiscount, &existing.PaymentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billNotFound(billID)
		}
		return nil, fmt.Errorf("failed to lock bill %d: %w", billID, err)
	}

	oldItems, err := fetchBillItems(ctx, tx, billID)
	if err != nil {
		return nil, err
	}

	// Restore the existing sale in full, then validate the replacement list
	// against the restored stock. Fully-restore-then-reapply (rather than
	// per-product net deltas) guarantees a product dropped from the bill gets
	// its stock back. Any error from here on rolls back the restore too,
	// leaving the bill's stock footprint untouched.
	if err := s.ledger.ApplyTx(ctx, tx, restoreDeltas(oldItems)); err != nil {
		return nil, err
	}

	originalQty := make(map[int64]int, len(oldItems))
	for _, it := range oldItems {
		originalQty[it.ProductID] = it.Quantity
	}

	newItems, err := s.freezeItems(ctx, tx, input.Items, originalQty)
	if err != nil {
		return nil, err
	}

	subtotal, totalDiscount, grandTotal := computeBillTotals(newItems, input.GlobalDiscount)
	if grandTotal.IsNegative() {
		return nil, ErrNegativeGrandTotal
	}

	customerName := existing.CustomerName
	if input.CustomerName != "" {
		customerName = input.CustomerName
	}
	customerPhone := existing.CustomerPhone
	if input.CustomerPhone != "" {
		customerPhone = input.CustomerPhone
	}
	paymentType := existing.PaymentType
	if input.PaymentType != "" {
		paymentType = input.PaymentType
	}

	_, err = tx.Exec(ctx, `
		UPDATE bills
		SET customer_name = $1, customer_phone = $2, subtotal = $3, global_discount = $4,
		    total_discount = $5, grand_total = $6, payment_type = $7, updated_at = NOW()
		WHERE id = $8
	`, customerName, customerPhone, subtotal, input.GlobalDiscount,
		totalDiscount, grandTotal, paymentType, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to update bill %d: %w", billID, err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM bill_items WHERE bill_id = $1", billID); err != nil {
		return nil, fmt.Errorf("failed to clear bill items: %w", err)
	}
	if err := insertBillItems(ctx, tx, billID, newItems); err != nil {
		return nil, err
	}

	// Reapply: final decrement for the replacement list.
	if err := s.ledger.ApplyTx(ctx, tx, saleDeltas(newItems)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit bill update: %w", err)
	}

	return s.GetBill(ctx, billID)
}

// ── Delete ───────────────────────────────────────────────────────────────────

func (s *billingService) DeleteBill(ctx context.Context, billID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	err = tx.QueryRow(ctx, "SELECT id FROM bills WHERE id = $1 FOR UPDATE", billID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billNotFound(billID)
		}
		return fmt.Errorf("failed to lock bill %d: %w", billID, err)
	}

	items, err := fetchBillItems(ctx, tx, billID)
	if err != nil {
		return err
	}

	if err := s.ledger.ApplyTx(ctx, tx, restoreDeltas(items)); err != nil {
		return err
	}

	// Items go with the bill via ON DELETE CASCADE.
	if _, err := tx.Exec(ctx, "DELETE FROM bills WHERE id = $1", billID); err != nil {
		return fmt.Errorf("failed to delete bill %d: %w", billID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit bill deletion: %w", err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *billingService) GetBill(ctx context.Context, billID int64) (*Bill, error) {
	var b Bill
	err := s.pool.QueryRow(ctx, `
		SELECT id, bill_number, customer_name, customer_phone, subtotal, global_discount,
		       total_discount, grand_total, payment_type, created_at, updated_at
		FROM bills
		WHERE id = $1
	`, billID).Scan(
		&b.ID, &b.BillNumber, &b.CustomerName, &b.CustomerPhone, &b.Subtotal,
		&b.GlobalDiscount, &b.TotalDiscount, &b.GrandTotal, &b.PaymentType,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billNotFound(billID)
		}
		return nil, fmt.Errorf("failed to fetch bill %d: %w", billID, err)
	}

	items, err := fetchBillItems(ctx, s.pool, billID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

func (s *billingService) GetBills(ctx context.Context) ([]Bill, error) {
	return s.queryBills(ctx, `
		SELECT id, bill_number, customer_name, customer_phone, subtotal, global_discount,
		       total_discount, grand_total, payment_type, created_at, updated_at
		FROM bills
		ORDER BY created_at DESC
	`)
}

func (s *billingService) SearchBills(ctx context.Context, query string) ([]Bill, error) {
	return s.queryBills(ctx, `
		SELECT id, bill_number, customer_name, customer_phone, subtotal, global_discount,
		       total_discount, grand_total, payment_type, created_at, updated_at
		FROM bills
		WHERE bill_number ILIKE '%' || $1 || '%'
		   OR customer_phone ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
	`, query)
}

func (s *billingService) queryBills(ctx context.Context, query string, args ...any) ([]Bill, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
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

// ── Helpers ──────────────────────────────────────────────────────────────────

// freezeItems resolves each requested line against the current catalog and
// freezes the product snapshot (name, SKU) into a BillItem.
//
// When originalQty is nil (create path), each line's full quantity is checked
// against available stock. When originalQty maps a prior version of the bill
// (update path, called after the restore), only the positive delta against the
// original quantity must be coverable by the restored stock.
func (s *billingService) freezeItems(ctx context.Context, tx pgx.Tx, inputs []BillItemInput, originalQty map[int64]int) ([]BillItem, error) {
	items := make([]BillItem, 0, len(inputs))
	for i, in := range inputs {
		var name, sku string
		var available int
		err := tx.QueryRow(ctx,
			"SELECT name, sku, quantity FROM products WHERE id = $1",
			in.ProductID,
		).Scan(&name, &sku, &available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, productNotFound(in.ProductID)
			}
			return nil, fmt.Errorf("failed to resolve product %d: %w", in.ProductID, err)
		}

		required := in.Quantity
		if originalQty != nil {
			required = in.Quantity - originalQty[in.ProductID]
		}
		if required > 0 && available < required {
			return nil, &InsufficientStockError{
				ProductName: name,
				Available:   available,
				Requested:   required,
			}
		}

		items = append(items, BillItem{
			LineNumber:   i + 1,
			ProductID:    in.ProductID,
			ProductName:  name,
			SKU:          sku,
			Quantity:     in.Quantity,
			SellingPrice: in.SellingPrice,
			Discount:     in.Discount,
			Comment:      in.Comment,
			Subtotal:     lineSubtotal(in.Quantity, in.SellingPrice, in.Discount),
		})
	}
	return items, nil
}

func insertBillItems(ctx context.Context, tx pgx.Tx, billID int64, items []BillItem) error {
	for _, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO bill_items (bill_id, line_number, product_id, product_name, sku, quantity, selling_price, discount, comment, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, billID, it.LineNumber, it.ProductID, it.ProductName, it.SKU,
			it.Quantity, it.SellingPrice, it.Discount, it.Comment, it.Subtotal)
		if err != nil {
			return fmt.Errorf("failed to insert bill item %d: %w", it.LineNumber, err)
		}
	}
	return nil
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers inside and outside transactions.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// attachBillItems loads the line items for a whole result set in one query and
// attaches them to their bills, avoiding a per-bill round trip on list paths.
func attachBillItems(ctx context.Context, q pgxQuerier, bills []Bill) error {
	if len(bills) == 0 {
		return nil
	}
	ids := make([]int64, len(bills))
	for i := range bills {
		ids[i] = bills[i].ID
	}

	rows, err := q.Query(ctx, `
		SELECT id, bill_id, line_number, product_id, product_name, sku, quantity,
		       selling_price, discount, comment, subtotal
		FROM bill_items
		WHERE bill_id = ANY($1)
		ORDER BY bill_id, line_number
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query bill items: %w", err)
	}
	defer rows.Close()

	grouped := make(map[int64][]BillItem, len(bills))
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(
			&it.ID, &it.BillID, &it.LineNumber, &it.ProductID, &it.ProductName,
			&it.SKU, &it.Quantity, &it.SellingPrice, &it.Discount, &it.Comment, &it.Subtotal,
		); err != nil {
			return fmt.Errorf("failed to scan bill item: %w", err)
		}
		grouped[it.BillID] = append(grouped[it.BillID], it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating bill items: %w", err)
	}

	for i := range bills {
		bills[i].Items = grouped[bills[i].ID]
	}
	return nil
}

func fetchBillItems(ctx context.Context, q pgxQuerier, billID int64) ([]BillItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, bill_id, line_number, product_id, product_name, sku, quantity,
		       selling_price, discount, comment, subtotal
		FROM bill_items
		WHERE bill_id = $1
		ORDER BY line_number
	`, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill items: %w", err)
	}
	defer rows.Close()

	var items []BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(
			&it.ID, &it.BillID, &it.LineNumber, &it.ProductID, &it.ProductName,
			&it.SKU, &it.Quantity, &it.SellingPrice, &it.Discount, &it.Comment, &it.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bill items: %w", err)
	}
	return items, nil
}
