package app

import (
	"context"

	"retail-pos/internal/core"
)

type appService struct {
	billing     core.BillingService
	creditNotes core.CreditNoteService
	reporting   core.ReportingService
	catalog     core.CatalogService
	settings    core.SettingsService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	billing core.BillingService,
	creditNotes core.CreditNoteService,
	reporting core.ReportingService,
	catalog core.CatalogService,
	settings core.SettingsService,
) ApplicationService {
	return &appService{
		billing:     billing,
		creditNotes: creditNotes,
		reporting:   reporting,
		catalog:     catalog,
		settings:    settings,
	}
}

func (s *appService) CreateBill(ctx context.Context, input core.CreateBillInput) (*core.Bill, error) {
	return s.billing.CreateBill(ctx, input)
}

func (s *appService) UpdateBill(ctx context.Context, id int64, input core.UpdateBillInput) (*core.Bill, error) {
	return s.billing.UpdateBill(ctx, id, input)
}

func (s *appService) DeleteBill(ctx context.Context, id int64) error {
	return s.billing.DeleteBill(ctx, id)
}

func (s *appService) GetBill(ctx context.Context, id int64) (*core.Bill, error) {
	return s.billing.GetBill(ctx, id)
}

func (s *appService) GetBills(ctx context.Context) ([]core.Bill, error) {
	return s.billing.GetBills(ctx)
}

func (s *appService) SearchBills(ctx context.Context, query string) ([]core.Bill, error) {
	return s.billing.SearchBills(ctx, query)
}

func (s *appService) GetBillShare(ctx context.Context, id int64) (*BillShareResult, error) {
	bill, err := s.billing.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	message := core.BuildShareMessage(settings.ShopName, bill)
	return &BillShareResult{
		WhatsAppLink: core.WhatsAppLink(bill.CustomerPhone, message),
		Message:      message,
	}, nil
}

func (s *appService) IssueCreditNote(ctx context.Context, input core.IssueCreditNoteInput) (*core.CreditNote, error) {
	return s.creditNotes.IssueCreditNote(ctx, input)
}

func (s *appService) GetCreditNote(ctx context.Context, id int64) (*core.CreditNote, error) {
	return s.creditNotes.GetCreditNote(ctx, id)
}

func (s *appService) GetCreditNotes(ctx context.Context) ([]core.CreditNote, error) {
	return s.creditNotes.GetCreditNotes(ctx)
}

func (s *appService) GetCreditNotesForBill(ctx context.Context, billID int64) ([]core.CreditNote, error) {
	return s.creditNotes.GetCreditNotesForBill(ctx, billID)
}

func (s *appService) GetReport(ctx context.Context, period core.Period) (*core.Report, error) {
	return s.reporting.GetReport(ctx, period)
}

func (s *appService) CreateProduct(ctx context.Context, input core.CreateProductInput) (*core.Product, error) {
	return s.catalog.CreateProduct(ctx, input)
}

func (s *appService) GetProduct(ctx context.Context, id int64) (*core.Product, error) {
	return s.catalog.GetProduct(ctx, id)
}

func (s *appService) GetProducts(ctx context.Context) ([]core.Product, error) {
	return s.catalog.GetProducts(ctx)
}

func (s *appService) UpdateProduct(ctx context.Context, id int64, input core.UpdateProductInput) (*core.Product, error) {
	return s.catalog.UpdateProduct(ctx, id, input)
}

func (s *appService) DeleteProduct(ctx context.Context, id int64) error {
	return s.catalog.DeleteProduct(ctx, id)
}

func (s *appService) GetSettings(ctx context.Context) (*core.ShopSettings, error) {
	return s.settings.GetSettings(ctx)
}

func (s *appService) UpdateShopName(ctx context.Context, shopName string) (*core.ShopSettings, error) {
	return s.settings.UpdateShopName(ctx, shopName)
}
