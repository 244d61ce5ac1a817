package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsService exposes the singleton shop settings row. The document
// counters are readable here but only ever advanced by the SequenceAllocator.
type SettingsService interface {
	GetSettings(ctx context.Context) (*ShopSettings, error)
	UpdateShopName(ctx context.Context, shopName string) (*ShopSettings, error)
}

type settingsService struct {
	pool *pgxpool.Pool
}

func NewSettingsService(pool *pgxpool.Pool) SettingsService {
	return &settingsService{pool: pool}
}

func (s *settingsService) GetSettings(ctx context.Context) (*ShopSettings, error) {
	var settings ShopSettings
	err := s.pool.QueryRow(ctx, `
		SELECT shop_name, last_bill_number, last_credit_note_number, updated_at
		FROM shop_settings
		WHERE id = 1
	`).Scan(&settings.ShopName, &settings.LastBillNumber, &settings.LastCreditNoteNumber, &settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shop settings: %w", err)
	}
	return &settings, nil
}

func (s *settingsService) UpdateShopName(ctx context.Context, shopName string) (*ShopSettings, error) {
	shopName = strings.TrimSpace(shopName)
	if shopName == "" {
		return nil, validationf("shop name is required")
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE shop_settings
		SET shop_name = $1, updated_at = NOW()
		WHERE id = 1
	`, shopName)
	if err != nil {
		return nil, fmt.Errorf("failed to update shop name: %w", err)
	}
	return s.GetSettings(ctx)
}
