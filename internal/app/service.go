package app

import (
	"context"

	"retail-pos/internal/core"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples presentation from business logic; implementations contain no
// HTTP types and no display logic of any kind.
type ApplicationService interface {
	// CreateBill freezes the requested lines, assigns the next bill number,
	// and deducts stock, all atomically.
	CreateBill(ctx context.Context, input core.CreateBillInput) (*core.Bill, error)

	// UpdateBill reconciles an existing bill against a replacement line set,
	// adjusting stock by the difference.
	UpdateBill(ctx context.Context, id int64, input core.UpdateBillInput) (*core.Bill, error)

	// DeleteBill removes a bill and restores the stock it deducted.
	DeleteBill(ctx context.Context, id int64) error

	// GetBill returns one bill with its frozen line items.
	GetBill(ctx context.Context, id int64) (*core.Bill, error)

	// GetBills returns all bills, newest first.
	GetBills(ctx context.Context) ([]core.Bill, error)

	// SearchBills matches bills by bill number or customer phone substring.
	SearchBills(ctx context.Context, query string) ([]core.Bill, error)

	// GetBillShare renders a bill as a WhatsApp message plus click-to-chat link.
	GetBillShare(ctx context.Context, id int64) (*BillShareResult, error)

	// IssueCreditNote records a partial return against a bill and restores stock.
	IssueCreditNote(ctx context.Context, input core.IssueCreditNoteInput) (*core.CreditNote, error)

	// GetCreditNote returns one credit note with its line items.
	GetCreditNote(ctx context.Context, id int64) (*core.CreditNote, error)

	// GetCreditNotes returns all credit notes, newest first.
	GetCreditNotes(ctx context.Context) ([]core.CreditNote, error)

	// GetCreditNotesForBill returns the credit notes issued against one bill.
	GetCreditNotesForBill(ctx context.Context, billID int64) ([]core.CreditNote, error)

	// GetReport builds the reconciled sales/inventory/cash report for a period.
	GetReport(ctx context.Context, period core.Period) (*core.Report, error)

	// Catalog.
	CreateProduct(ctx context.Context, input core.CreateProductInput) (*core.Product, error)
	GetProduct(ctx context.Context, id int64) (*core.Product, error)
	GetProducts(ctx context.Context) ([]core.Product, error)
	UpdateProduct(ctx context.Context, id int64, input core.UpdateProductInput) (*core.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	// Settings.
	GetSettings(ctx context.Context) (*core.ShopSettings, error)
	UpdateShopName(ctx context.Context, shopName string) (*core.ShopSettings, error)
}

// BillShareResult is returned by GetBillShare.
type BillShareResult struct {
	WhatsAppLink string `json:"whatsappLink"`
	Message      string `json:"message"`
}
