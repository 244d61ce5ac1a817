package core_test

import (
	"context"
	"errors"
	"testing"

	"retail-pos/internal/core"
)

func TestCatalog_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	created, err := catalog.CreateProduct(ctx, core.CreateProductInput{
		SKU:          "FAN-04",
		Name:         "Table Fan",
		Quantity:     7,
		CostPrice:    mustDecimal(t, "900.00"),
		SellingPrice: mustDecimal(t, "1300.00"),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.SKU != "FAN-04" || created.Quantity != 7 {
		t.Errorf("created = %+v, want FAN-04 with quantity 7", created)
	}

	// Duplicate SKU is a validation failure, not an internal error.
	_, err = catalog.CreateProduct(ctx, core.CreateProductInput{
		SKU:          "FAN-04",
		Name:         "Another Fan",
		SellingPrice: mustDecimal(t, "1000.00"),
	})
	var validationErr *core.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for duplicate sku, got %v", err)
	}

	products, err := catalog.GetProducts(ctx)
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if len(products) != 4 {
		t.Errorf("products = %d, want 4 (3 seeded + 1 created)", len(products))
	}
}

func TestCatalog_PartialUpdate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	newPrice := mustDecimal(t, "1100.00")
	updated, err := catalog.UpdateProduct(ctx, 1, core.UpdateProductInput{
		SellingPrice: &newPrice,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if !updated.SellingPrice.Equal(newPrice) {
		t.Errorf("selling price = %s, want 1100.00", updated.SellingPrice)
	}
	// Untouched fields survive.
	if updated.Name != "Steam Press" || updated.Quantity != 10 {
		t.Errorf("unrelated fields changed: %+v", updated)
	}

	negative := -1
	if _, err := catalog.UpdateProduct(ctx, 1, core.UpdateProductInput{Quantity: &negative}); err == nil {
		t.Error("expected validation error for negative quantity")
	}

	if _, err := catalog.UpdateProduct(ctx, 9999, core.UpdateProductInput{SellingPrice: &newPrice}); !core.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestCatalog_DeleteKeepsBillHistory(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	sequences := core.NewSequenceAllocator()
	billing := core.NewBillingService(pool, ledger, sequences)
	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	bill, err := billing.CreateBill(ctx, core.CreateBillInput{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Items: []core.BillItemInput{
			{ProductID: 1, Quantity: 1, SellingPrice: mustDecimal(t, "1000.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	// Sales history never blocks a catalog delete; the bill keeps its snapshot.
	if err := catalog.DeleteProduct(ctx, 1); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	kept, err := billing.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("GetBill after product delete: %v", err)
	}
	if len(kept.Items) != 1 || kept.Items[0].ProductName != "Steam Press" {
		t.Errorf("bill items after product delete = %+v, want frozen snapshot intact", kept.Items)
	}

	if err := catalog.DeleteProduct(ctx, 1); !core.IsNotFound(err) {
		t.Errorf("expected not-found on second delete, got %v", err)
	}
}

func TestSettings_GetAndUpdateShopName(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	settings := core.NewSettingsService(pool)
	ctx := context.Background()

	current, err := settings.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if current.ShopName != "Test Shop" {
		t.Errorf("shop name = %q, want Test Shop", current.ShopName)
	}
	if current.LastBillNumber != 0 || current.LastCreditNoteNumber != 0 {
		t.Errorf("counters = %d/%d, want 0/0", current.LastBillNumber, current.LastCreditNoteNumber)
	}

	updated, err := settings.UpdateShopName(ctx, "Goyam Traders")
	if err != nil {
		t.Fatalf("UpdateShopName: %v", err)
	}
	if updated.ShopName != "Goyam Traders" {
		t.Errorf("shop name = %q, want Goyam Traders", updated.ShopName)
	}

	if _, err := settings.UpdateShopName(ctx, "   "); err == nil {
		t.Error("expected validation error for blank shop name")
	}
}

func TestSettings_CountersAdvanceWithDocuments(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	sequences := core.NewSequenceAllocator()
	billing := core.NewBillingService(pool, ledger, sequences)
	creditNotes := core.NewCreditNoteService(pool, ledger, sequences)
	settings := core.NewSettingsService(pool)
	ctx := context.Background()

	bill, err := billing.CreateBill(ctx, core.CreateBillInput{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Items: []core.BillItemInput{
			{ProductID: 1, Quantity: 1, SellingPrice: mustDecimal(t, "1000.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if _, err := creditNotes.IssueCreditNote(ctx, core.IssueCreditNoteInput{
		OriginalBillID: bill.ID,
		Items: []core.CreditNoteItemInput{
			{ProductID: 1, Quantity: 1, SellingPrice: mustDecimal(t, "1000.00")},
		},
	}); err != nil {
		t.Fatalf("IssueCreditNote: %v", err)
	}

	current, err := settings.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if current.LastBillNumber != 1 || current.LastCreditNoteNumber != 1 {
		t.Errorf("counters = %d/%d, want 1/1", current.LastBillNumber, current.LastCreditNoteNumber)
	}
}
