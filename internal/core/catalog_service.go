package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CreateProductInput is the input for adding a catalog product.
type CreateProductInput struct {
	SKU          string
	Name         string
	Quantity     int
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
}

// UpdateProductInput is a partial catalog edit; nil fields keep the stored
// value. Quantity edits here are direct stock corrections and bypass the
// ledger, but the non-negative floor still holds.
type UpdateProductInput struct {
	SKU          *string
	Name         *string
	Quantity     *int
	CostPrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
}

// CatalogService manages the product catalog. Deleting a product never blocks
// on sales history: bill and credit note lines hold frozen snapshots and keep
// the id only as a weak reference.
type CatalogService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	GetProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error) {
	input.SKU = strings.TrimSpace(input.SKU)
	input.Name = strings.TrimSpace(input.Name)
	if input.SKU == "" {
		return nil, validationf("sku is required")
	}
	if input.Name == "" {
		return nil, validationf("name is required")
	}
	if input.Quantity < 0 {
		return nil, validationf("quantity cannot be negative")
	}
	if input.CostPrice.IsNegative() {
		return nil, validationf("cost price cannot be negative")
	}
	if input.SellingPrice.IsNegative() {
		return nil, validationf("selling price cannot be negative")
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, quantity, cost_price, selling_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, input.SKU, input.Name, input.Quantity, input.CostPrice, input.SellingPrice).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, validationf("a product with sku %q already exists", input.SKU)
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, `
		SELECT id, sku, name, quantity, cost_price, selling_price, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.SKU, &p.Name, &p.Quantity, &p.CostPrice, &p.SellingPrice, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, productNotFound(id)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	return &p, nil
}

func (s *catalogService) GetProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sku, name, quantity, cost_price, selling_price, created_at, updated_at
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Quantity, &p.CostPrice, &p.SellingPrice, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*Product, error) {
	if input.SKU != nil && strings.TrimSpace(*input.SKU) == "" {
		return nil, validationf("sku cannot be empty")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, validationf("name cannot be empty")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, validationf("quantity cannot be negative")
	}
	if input.CostPrice != nil && input.CostPrice.IsNegative() {
		return nil, validationf("cost price cannot be negative")
	}
	if input.SellingPrice != nil && input.SellingPrice.IsNegative() {
		return nil, validationf("selling price cannot be negative")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var p Product
	err = tx.QueryRow(ctx, `
		SELECT id, sku, name, quantity, cost_price, selling_price
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&p.ID, &p.SKU, &p.Name, &p.Quantity, &p.CostPrice, &p.SellingPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, productNotFound(id)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", id, err)
	}

	if input.SKU != nil {
		p.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Quantity != nil {
		p.Quantity = *input.Quantity
	}
	if input.CostPrice != nil {
		p.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		p.SellingPrice = *input.SellingPrice
	}

	_, err = tx.Exec(ctx, `
		UPDATE products
		SET sku = $1, name = $2, quantity = $3, cost_price = $4, selling_price = $5, updated_at = NOW()
		WHERE id = $6
	`, p.SKU, p.Name, p.Quantity, p.CostPrice, p.SellingPrice, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, validationf("a product with sku %q already exists", p.SKU)
		}
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return productNotFound(id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
