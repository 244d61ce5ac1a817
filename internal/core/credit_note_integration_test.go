package core_test

import (
	"context"
	"errors"
	"testing"

	"retail-pos/internal/core"
)

func TestCreditNote_IssueRestoresStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	sequences := core.NewSequenceAllocator()
	billing := core.NewBillingService(pool, ledger, sequences)
	creditNotes := core.NewCreditNoteService(pool, ledger, sequences)
	ctx := context.Background()

	bill, err := billing.CreateBill(ctx, core.CreateBillInput{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Items: []core.BillItemInput{
			{ProductID: 1, Quantity: 4, SellingPrice: mustDecimal(t, "1000.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if qty := productQuantity(t, pool, 1); qty != 6 {
		t.Fatalf("product 1 quantity = %d, want 6", qty)
	}

	note, err := creditNotes.IssueCreditNote(ctx, core.IssueCreditNoteInput{
		OriginalBillID: bill.ID,
		Items: []core.CreditNoteItemInput{
			{ProductID: 1, Quantity: 2, SellingPrice: mustDecimal(t, "1000.00"), Reason: "defective"},
		},
		Reason: "customer return",
	})
	if err != nil {
		t.Fatalf("IssueCreditNote: %v", err)
	}

	if note.CreditNoteNumber != "CN-001" {
		t.Errorf("credit note number = %q, want CN-001", note.CreditNoteNumber)
	}
	if note.OriginalBillNumber != bill.BillNumber {
		t.Errorf("original bill number = %q, want %q", note.OriginalBillNumber, bill.BillNumber)
	}
	if note.CustomerName != "Asha" {
		t.Errorf("customer = %q, want copied from bill", note.CustomerName)
	}
	if !note.TotalAmount.Equal(mustDecimal(t, "2000.00")) {
		t.Errorf("total amount = %s, want 2000.00", note.TotalAmount)
	}
	// Profit lost: 2 × (1000 − 700 cost).
	if !note.TotalProfitLoss.Equal(mustDecimal(t, "600.00")) {
		t.Errorf("profit loss = %s, want 600.00", note.TotalProfitLoss)
	}
	if len(note.Items) != 1 || note.Items[0].SKU != "PRESS-01" {
		t.Errorf("items = %+v, want one frozen PRESS-01 line", note.Items)
	}

	if qty := productQuantity(t, pool, 1); qty != 8 {
		t.Errorf("product 1 quantity = %d, want 8 after the return", qty)
	}
}

func TestCreditNote_ExcessReturnRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	sequences := core.NewSequenceAllocator()
	billing := core.NewBillingService(pool, ledger, sequences)
	creditNotes := core.NewCreditNoteService(pool, ledger, sequences)
	ctx := context.Background()

	bill, err := billing.CreateBill(ctx, core.CreateBillInput{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Items: []core.BillItemInput{
			{ProductID: 1, Quantity: 2, SellingPrice: mustDecimal(t, "1000.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	_, err = creditNotes.IssueCreditNote(ctx, core.IssueCreditNoteInput{
		OriginalBillID: bill.ID,
		Items: []core.CreditNoteItemInput{
			{ProductID: 1, Quantity: 3, SellingPrice: mustDecimal(t, "1000.00")},
		},
	})
	var excessErr *core.ExcessReturnError
	if !errors.As(err, &excessErr) {
		t.Fatalf("expected ExcessReturnError, got %v", err)
	}
	if excessErr.Requested != 3 || excessErr.Sold != 2 {
		t.Errorf("error detail = requested %d sold %d, want 3 and 2", excessErr.Requested, excessErr.Sold)
	}

	// No stock change, no note persisted.
	if qty := productQuantity(t, pool, 1); qty != 8 {
		t.Errorf("product 1 quantity = %d, want 8", qty)
	}
	notes, err := creditNotes.GetCreditNotes(ctx)
	if err != nil {
		t.Fatalf("GetCreditNotes: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("notes persisted = %d, want 0", len(notes))
	}
}

func TestCreditNote_ItemNotOnBillRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	sequences := core.NewSequenceAllocator()
	billing := core.NewBillingService(pool, ledger, sequences)
	creditNotes := core.NewCreditNoteService(pool, ledger, sequences)
	ctx := context.Background()

	bill, err := billing.CreateBill(ctx, core.CreateBillInput{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Items: []core.BillItemInput{
			{ProductID: 1, Quantity: 2, SellingPrice: mustDecimal(t, "1000.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	_, err = creditNotes.IssueCreditNote(ctx, core.IssueCreditNoteInput{
		OriginalBillID: bill.ID,
		Items: []core.CreditNoteItemInput{
			{ProductID: 2, Quantity: 1, SellingPrice: mustDecimal(t, "3000.00")},
		},
	})
	var notInBill *core.ItemNotInBillError
	if !errors.As(err, &notInBill) {
		t.Fatalf("expected ItemNotInBillError, got %v", err)
	}
}

func TestCreditNote_RepeatedPartialReturns(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	sequences := core.NewSequenceAllocator()
	billing := core.NewBillingService(pool, ledger, sequences)
	creditNotes := core.NewCreditNoteService(pool, ledger, sequences)
	ctx := context.Background()

	bill, err := billing.CreateBill(ctx, core.CreateBillInput{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Items: []core.BillItemInput{
			{ProductID: 1, Quantity: 3, SellingPrice: mustDecimal(t, "1000.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	// Each note is validated against the original line independently; two
	// returns of 2 are both accepted even though they exceed 3 in aggregate.
	for i := 0; i < 2; i++ {
		if _, err := creditNotes.IssueCreditNote(ctx, core.IssueCreditNoteInput{
			OriginalBillID: bill.ID,
			Items: []core.CreditNoteItemInput{
				{ProductID: 1, Quantity: 2, SellingPrice: mustDecimal(t, "1000.00")},
			},
		}); err != nil {
			t.Fatalf("IssueCreditNote %d: %v", i+1, err)
		}
	}

	forBill, err := creditNotes.GetCreditNotesForBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("GetCreditNotesForBill: %v", err)
	}
	if len(forBill) != 2 {
		t.Errorf("notes for bill = %d, want 2", len(forBill))
	}
	if qty := productQuantity(t, pool, 1); qty != 11 {
		t.Errorf("product 1 quantity = %d, want 11 (7 after sale + 4 returned)", qty)
	}
}

func TestCreditNote_ValidationAndNotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	sequences := core.NewSequenceAllocator()
	creditNotes := core.NewCreditNoteService(pool, ledger, sequences)
	ctx := context.Background()

	if _, err := creditNotes.IssueCreditNote(ctx, core.IssueCreditNoteInput{
		OriginalBillID: 1,
	}); err == nil {
		t.Error("expected validation error for empty items")
	}

	_, err := creditNotes.IssueCreditNote(ctx, core.IssueCreditNoteInput{
		OriginalBillID: 9999,
		Items: []core.CreditNoteItemInput{
			{ProductID: 1, Quantity: 1, SellingPrice: mustDecimal(t, "1000.00")},
		},
	})
	if !core.IsNotFound(err) {
		t.Errorf("expected not-found for missing bill, got %v", err)
	}

	if _, err := creditNotes.GetCreditNote(ctx, 9999); !core.IsNotFound(err) {
		t.Errorf("expected not-found for missing note, got %v", err)
	}
}
