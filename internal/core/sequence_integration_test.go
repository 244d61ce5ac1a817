package core_test

import (
	"context"
	"sync"
	"testing"

	"retail-pos/internal/core"
)

func TestSequenceAllocator_SequentialNumbers(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	allocator := core.NewSequenceAllocator()
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		tx, err := pool.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		n, err := allocator.NextBillNumber(ctx, tx)
		if err != nil {
			t.Fatalf("NextBillNumber: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
		got = append(got, n)
	}

	want := []string{"RG-001", "RG-002", "RG-003"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bill number %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSequenceAllocator_IndependentCounters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	allocator := core.NewSequenceAllocator()
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	billNo, err := allocator.NextBillNumber(ctx, tx)
	if err != nil {
		t.Fatalf("NextBillNumber: %v", err)
	}
	noteNo, err := allocator.NextCreditNoteNumber(ctx, tx)
	if err != nil {
		t.Fatalf("NextCreditNoteNumber: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if billNo != "RG-001" {
		t.Errorf("bill number = %q, want RG-001", billNo)
	}
	if noteNo != "CN-001" {
		t.Errorf("credit note number = %q, want CN-001", noteNo)
	}
}

func TestSequenceAllocator_RollbackReleasesNumber(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	allocator := core.NewSequenceAllocator()
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := allocator.NextBillNumber(ctx, tx); err != nil {
		t.Fatalf("NextBillNumber: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	tx2, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	n, err := allocator.NextBillNumber(ctx, tx2)
	if err != nil {
		t.Fatalf("NextBillNumber: %v", err)
	}
	if err := tx2.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if n != "RG-001" {
		t.Errorf("number after rollback = %q, want RG-001 (rolled-back increment released)", n)
	}
}

func TestSequenceAllocator_ConcurrentUniqueness(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	allocator := core.NewSequenceAllocator()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := pool.Begin(ctx)
			if err != nil {
				t.Errorf("begin: %v", err)
				return
			}
			n, err := allocator.NextBillNumber(ctx, tx)
			if err != nil {
				tx.Rollback(ctx)
				t.Errorf("NextBillNumber: %v", err)
				return
			}
			if err := tx.Commit(ctx); err != nil {
				t.Errorf("commit: %v", err)
				return
			}
			mu.Lock()
			if seen[n] {
				t.Errorf("duplicate bill number allocated: %s", n)
			}
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers {
		t.Errorf("allocated %d distinct numbers, want %d", len(seen), workers)
	}
}
