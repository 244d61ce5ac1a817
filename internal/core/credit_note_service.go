package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CreditNoteItemInput is a requested return line. SellingPrice is the price
// the customer is credited at, normally the original sale price.
type CreditNoteItemInput struct {
	ProductID    int64
	Quantity     int
	SellingPrice decimal.Decimal
	Reason       string
}

// IssueCreditNoteInput is the input for issuing a credit note against a bill.
type IssueCreditNoteInput struct {
	OriginalBillID int64
	Items          []CreditNoteItemInput
	Reason         string
}

// CreditNoteService issues partial-return documents against prior bills.
// Credit notes only ever return stock; they are never edited or reversed.
//
// A return line is bounded by the originating bill line, not by the sum of
// prior credit notes against it, so repeated partial notes can exceed the
// original quantity in aggregate. Callers wanting a stricter bound can sum
// GetCreditNotesForBill before issuing.
type CreditNoteService interface {
	IssueCreditNote(ctx context.Context, input IssueCreditNoteInput) (*CreditNote, error)
	GetCreditNote(ctx context.Context, id int64) (*CreditNote, error)
	GetCreditNotes(ctx context.Context) ([]CreditNote, error)
	GetCreditNotesForBill(ctx context.Context, billID int64) ([]CreditNote, error)
}

type creditNoteService struct {
	pool      *pgxpool.Pool
	ledger    StockLedger
	sequences SequenceAllocator
}

func NewCreditNoteService(pool *pgxpool.Pool, ledger StockLedger, sequences SequenceAllocator) CreditNoteService {
	return &creditNoteService{pool: pool, ledger: ledger, sequences: sequences}
}

func (s *creditNoteService) IssueCreditNote(ctx context.Context, input IssueCreditNoteInput) (*CreditNote, error) {
	if len(input.Items) == 0 {
		return nil, validationf("at least one item is required")
	}
	for i, it := range input.Items {
		if it.Quantity < 1 {
			return nil, validationf("item %d: quantity must be greater than 0", i+1)
		}
		if it.SellingPrice.IsNegative() {
			return nil, validationf("item %d: selling price cannot be negative", i+1)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the originating bill so its line quantities cannot change under us
	// while returned quantities are being validated against them.
	var bill Bill
	err = tx.QueryRow(ctx, `
		SELECT id, bill_number, customer_name, customer_phone
		FROM bills
		WHERE id = $1
		FOR UPDATE
	`, input.OriginalBillID).Scan(&bill.ID, &bill.BillNumber, &bill.CustomerName, &bill.CustomerPhone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billNotFound(input.OriginalBillID)
		}
		return nil, fmt.Errorf("failed to lock bill %d: %w", input.OriginalBillID, err)
	}

	originalItems, err := fetchBillItems(ctx, tx, bill.ID)
	if err != nil {
		return nil, err
	}
	soldQty := make(map[int64]int, len(originalItems))
	for _, it := range originalItems {
		soldQty[it.ProductID] = it.Quantity
	}

	var totalAmount, totalProfitLoss decimal.Decimal
	items := make([]CreditNoteItem, 0, len(input.Items))
	for i, in := range input.Items {
		var name, sku string
		var costPrice decimal.Decimal
		err := tx.QueryRow(ctx,
			"SELECT name, sku, cost_price FROM products WHERE id = $1",
			in.ProductID,
		).Scan(&name, &sku, &costPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, productNotFound(in.ProductID)
			}
			return nil, fmt.Errorf("failed to resolve product %d: %w", in.ProductID, err)
		}

		sold, onBill := soldQty[in.ProductID]
		if !onBill {
			return nil, &ItemNotInBillError{ProductName: name}
		}
		if in.Quantity > sold {
			return nil, &ExcessReturnError{ProductName: name, Requested: in.Quantity, Sold: sold}
		}

		qty := decimal.NewFromInt(int64(in.Quantity))
		itemAmount := qty.Mul(in.SellingPrice)
		itemCost := qty.Mul(costPrice)
		totalAmount = totalAmount.Add(itemAmount)
		// Profit that is lost by taking the item back.
		totalProfitLoss = totalProfitLoss.Add(itemAmount.Sub(itemCost))

		items = append(items, CreditNoteItem{
			LineNumber:   i + 1,
			ProductID:    in.ProductID,
			ProductName:  name,
			SKU:          sku,
			Quantity:     in.Quantity,
			SellingPrice: in.SellingPrice,
			CostPrice:    costPrice,
			Reason:       in.Reason,
		})
	}

	noteNumber, err := s.sequences.NextCreditNoteNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	var noteID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO credit_notes (credit_note_number, original_bill_id, original_bill_number, customer_name, customer_phone, total_amount, total_profit_loss, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, noteNumber, bill.ID, bill.BillNumber, bill.CustomerName, bill.CustomerPhone,
		totalAmount, totalProfitLoss, input.Reason,
	).Scan(&noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert credit note: %w", err)
	}

	for _, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO credit_note_items (credit_note_id, line_number, product_id, product_name, sku, quantity, selling_price, cost_price, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, noteID, it.LineNumber, it.ProductID, it.ProductName, it.SKU,
			it.Quantity, it.SellingPrice, it.CostPrice, it.Reason)
		if err != nil {
			return nil, fmt.Errorf("failed to insert credit note item %d: %w", it.LineNumber, err)
		}
	}

	// Returned stock comes back; the return path only ever adds.
	returns := make([]StockDelta, 0, len(items))
	for _, it := range items {
		returns = append(returns, StockDelta{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if err := s.ledger.ApplyTx(ctx, tx, returns); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit credit note: %w", err)
	}

	return s.GetCreditNote(ctx, noteID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *creditNoteService) GetCreditNote(ctx context.Context, id int64) (*CreditNote, error) {
	var cn CreditNote
	err := s.pool.QueryRow(ctx, `
		SELECT id, credit_note_number, original_bill_id, original_bill_number, customer_name,
		       customer_phone, total_amount, total_profit_loss, reason, created_at, updated_at
		FROM credit_notes
		WHERE id = $1
	`, id).Scan(
		&cn.ID, &cn.CreditNoteNumber, &cn.OriginalBillID, &cn.OriginalBillNumber,
		&cn.CustomerName, &cn.CustomerPhone, &cn.TotalAmount, &cn.TotalProfitLoss,
		&cn.Reason, &cn.CreatedAt, &cn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, creditNoteNotFound(id)
		}
		return nil, fmt.Errorf("failed to fetch credit note %d: %w", id, err)
	}

	items, err := fetchCreditNoteItems(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	cn.Items = items
	return &cn, nil
}

func (s *creditNoteService) GetCreditNotes(ctx context.Context) ([]CreditNote, error) {
	return s.queryCreditNotes(ctx, `
		SELECT id, credit_note_number, original_bill_id, original_bill_number, customer_name,
		       customer_phone, total_amount, total_profit_loss, reason, created_at, updated_at
		FROM credit_notes
		ORDER BY created_at DESC
	`)
}

func (s *creditNoteService) GetCreditNotesForBill(ctx context.Context, billID int64) ([]CreditNote, error) {
	return s.queryCreditNotes(ctx, `
		SELECT id, credit_note_number, original_bill_id, original_bill_number, customer_name,
		       customer_phone, total_amount, total_profit_loss, reason, created_at, updated_at
		FROM credit_notes
		WHERE original_bill_id = $1
		ORDER BY created_at DESC
	`, billID)
}

func (s *creditNoteService) queryCreditNotes(ctx context.Context, query string, args ...any) ([]CreditNote, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit notes: %w", err)
	}
	defer rows.Close()

	var notes []CreditNote
	for rows.Next() {
		var cn CreditNote
		if err := rows.Scan(
			&cn.ID, &cn.CreditNoteNumber, &cn.OriginalBillID, &cn.OriginalBillNumber,
			&cn.CustomerName, &cn.CustomerPhone, &cn.TotalAmount, &cn.TotalProfitLoss,
			&cn.Reason, &cn.CreatedAt, &cn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan credit note: %w", err)
		}
		notes = append(notes, cn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit notes: %w", err)
	}

	if err := attachCreditNoteItems(ctx, s.pool, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// attachCreditNoteItems is the batch counterpart of fetchCreditNoteItems for
// list paths: one query for the whole result set, grouped in memory.
func attachCreditNoteItems(ctx context.Context, q pgxQuerier, notes []CreditNote) error {
	if len(notes) == 0 {
		return nil
	}
	ids := make([]int64, len(notes))
	for i := range notes {
		ids[i] = notes[i].ID
	}

	rows, err := q.Query(ctx, `
		SELECT id, credit_note_id, line_number, product_id, product_name, sku, quantity,
		       selling_price, cost_price, reason
		FROM credit_note_items
		WHERE credit_note_id = ANY($1)
		ORDER BY credit_note_id, line_number
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query credit note items: %w", err)
	}
	defer rows.Close()

	grouped := make(map[int64][]CreditNoteItem, len(notes))
	for rows.Next() {
		var it CreditNoteItem
		if err := rows.Scan(
			&it.ID, &it.CreditNoteID, &it.LineNumber, &it.ProductID, &it.ProductName,
			&it.SKU, &it.Quantity, &it.SellingPrice, &it.CostPrice, &it.Reason,
		); err != nil {
			return fmt.Errorf("failed to scan credit note item: %w", err)
		}
		grouped[it.CreditNoteID] = append(grouped[it.CreditNoteID], it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating credit note items: %w", err)
	}

	for i := range notes {
		notes[i].Items = grouped[notes[i].ID]
	}
	return nil
}

func fetchCreditNoteItems(ctx context.Context, q pgxQuerier, noteID int64) ([]CreditNoteItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, credit_note_id, line_number, product_id, product_name, sku, quantity,
		       selling_price, cost_price, reason
		FROM credit_note_items
		WHERE credit_note_id = $1
		ORDER BY line_number
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit note items: %w", err)
	}
	defer rows.Close()

	var items []CreditNoteItem
	for rows.Next() {
		var it CreditNoteItem
		if err := rows.Scan(
			&it.ID, &it.CreditNoteID, &it.LineNumber, &it.ProductID, &it.ProductName,
			&it.SKU, &it.Quantity, &it.SellingPrice, &it.CostPrice, &it.Reason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan credit note item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit note items: %w", err)
	}
	return items, nil
}
