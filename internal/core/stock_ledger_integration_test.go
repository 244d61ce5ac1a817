package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"retail-pos/internal/core"
)

func TestStockLedger_ApplySale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	err := ledger.Apply(ctx, []core.StockDelta{
		{ProductID: 1, Quantity: -4},
		{ProductID: 2, Quantity: -2},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if qty := productQuantity(t, pool, 1); qty != 6 {
		t.Errorf("product 1 quantity = %d, want 6", qty)
	}
	if qty := productQuantity(t, pool, 2); qty != 3 {
		t.Errorf("product 2 quantity = %d, want 3", qty)
	}
}

func TestStockLedger_InsufficientStockIsAllOrNothing(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	// Product 3 has zero stock; the whole batch must be rejected, including
	// the perfectly satisfiable delta for product 1.
	err := ledger.Apply(ctx, []core.StockDelta{
		{ProductID: 1, Quantity: -2},
		{ProductID: 3, Quantity: -1},
	})

	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 0 || stockErr.Requested != 1 {
		t.Errorf("error detail = available %d requested %d, want 0 and 1",
			stockErr.Available, stockErr.Requested)
	}

	if qty := productQuantity(t, pool, 1); qty != 10 {
		t.Errorf("product 1 quantity = %d, want 10 (batch must not partially apply)", qty)
	}
	if qty := productQuantity(t, pool, 3); qty != 0 {
		t.Errorf("product 3 quantity = %d, want 0", qty)
	}
}

func TestStockLedger_CoalescesDuplicateProducts(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	// Two lines for product 1 net to −7; validated and applied as one delta.
	err := ledger.Apply(ctx, []core.StockDelta{
		{ProductID: 1, Quantity: -5},
		{ProductID: 1, Quantity: -2},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if qty := productQuantity(t, pool, 1); qty != 3 {
		t.Errorf("product 1 quantity = %d, want 3", qty)
	}

	// Net zero must leave stock untouched even when each half alone is large.
	err = ledger.Apply(ctx, []core.StockDelta{
		{ProductID: 2, Quantity: -100},
		{ProductID: 2, Quantity: 100},
	})
	if err != nil {
		t.Fatalf("Apply net-zero: %v", err)
	}
	if qty := productQuantity(t, pool, 2); qty != 5 {
		t.Errorf("product 2 quantity = %d, want 5", qty)
	}
}

func TestStockLedger_ReturnIncreasesStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	if err := ledger.Apply(ctx, []core.StockDelta{{ProductID: 3, Quantity: 4}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if qty := productQuantity(t, pool, 3); qty != 4 {
		t.Errorf("product 3 quantity = %d, want 4", qty)
	}
}

func TestStockLedger_ConcurrentSalesNeverOversell(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	// Product 2 has 5 units; 8 workers race to sell one each. The row lock
	// serializes them, so exactly 5 succeed and stock lands on zero, never
	// below.
	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Apply(ctx, []core.StockDelta{{ProductID: 2, Quantity: -1}})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			var stockErr *core.InsufficientStockError
			if !errors.As(err, &stockErr) && !core.IsConcurrencyConflict(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 {
		t.Errorf("succeeded = %d, want exactly 5 (one per unit in stock)", succeeded)
	}
	if qty := productQuantity(t, pool, 2); qty != 0 {
		t.Errorf("product 2 quantity = %d, want 0", qty)
	}
}

func TestStockLedger_UnknownProduct(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	err := ledger.Apply(ctx, []core.StockDelta{{ProductID: 9999, Quantity: -1}})
	if !core.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
