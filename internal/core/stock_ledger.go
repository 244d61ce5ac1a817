package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockDelta is a signed quantity change for one product. Negative quantities
// record a sale (stock leaves); positive quantities record a return or a
// reversal (stock comes back). Sale and reversal being the same primitive with
// opposite sign is what lets a bill edit undo its prior sale by replaying the
// old line items sign-flipped.
type StockDelta struct {
	ProductID int64
	Quantity  int
}

// StockLedger applies batches of stock deltas against the catalog, enforcing
// quantity ≥ 0 for every product at all times. A batch is all-or-nothing:
// if any product would go negative, no product in the batch is changed.
type StockLedger interface {
	// Apply runs the batch in its own transaction.
	Apply(ctx context.Context, deltas []StockDelta) error
	// ApplyTx runs the batch inside the caller's transaction. The error
	// contract is the same; the caller's rollback provides the all-or-nothing
	// guarantee jointly with its other writes.
	ApplyTx(ctx context.Context, tx pgx.Tx, deltas []StockDelta) error
}

type stockLedger struct {
	pool *pgxpool.Pool
}

func NewStockLedger(pool *pgxpool.Pool) StockLedger {
	return &stockLedger{pool: pool}
}

func (l *stockLedger) Apply(ctx context.Context, deltas []StockDelta) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := l.ApplyTx(ctx, tx, deltas); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stock deltas: %w", err)
	}
	return nil
}

func (l *stockLedger) ApplyTx(ctx context.Context, tx pgx.Tx, deltas []StockDelta) error {
	// Coalesce duplicate product ids so one row is locked and written once,
	// then lock in ascending id order so concurrent batches touching the same
	// products acquire locks in a single global order.
	merged := make(map[int64]int, len(deltas))
	for _, d := range deltas {
		merged[d.ProductID] += d.Quantity
	}
	ids := make([]int64, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		delta := merged[id]
		if delta == 0 {
			continue
		}

		var name string
		var quantity int
		err := tx.QueryRow(ctx,
			"SELECT name, quantity FROM products WHERE id = $1 FOR UPDATE",
			id,
		).Scan(&name, &quantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return productNotFound(id)
			}
			return fmt.Errorf("failed to lock product %d: %w", id, err)
		}

		newQuantity := quantity + delta
		if newQuantity < 0 {
			return &InsufficientStockError{
				ProductName: name,
				Available:   quantity,
				Requested:   -delta,
			}
		}

		if _, err := tx.Exec(ctx,
			"UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2",
			newQuantity, id,
		); err != nil {
			return fmt.Errorf("failed to update stock for product %d: %w", id, err)
		}
	}
	return nil
}

// saleDeltas converts bill items into the negative deltas of a sale.
func saleDeltas(items []BillItem) []StockDelta {
	deltas := make([]StockDelta, 0, len(items))
	for _, it := range items {
		deltas = append(deltas, StockDelta{ProductID: it.ProductID, Quantity: -it.Quantity})
	}
	return deltas
}

// restoreDeltas converts bill items into the positive deltas that reverse a sale.
func restoreDeltas(items []BillItem) []StockDelta {
	deltas := make([]StockDelta, 0, len(items))
	for _, it := range items {
		deltas = append(deltas, StockDelta{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return deltas
}
