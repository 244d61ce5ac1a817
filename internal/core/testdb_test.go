package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live shop database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed: three products with known stock, counters reset to zero.
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE credit_note_items, credit_notes, bill_items, bills, products RESTART IDENTITY CASCADE;

		INSERT INTO shop_settings (id, shop_name, last_bill_number, last_credit_note_number)
		VALUES (1, 'Test Shop', 0, 0)
		ON CONFLICT (id) DO UPDATE
		SET shop_name = EXCLUDED.shop_name,
		    last_bill_number = 0,
		    last_credit_note_number = 0;

		INSERT INTO products (sku, name, quantity, cost_price, selling_price) VALUES
		('PRESS-01', 'Steam Press', 10, '700.00', '1000.00'),
		('MIXER-02', 'Mixer Grinder', 5, '2200.00', '3000.00'),
		('KETTLE-03', 'Electric Kettle', 0, '450.00', '650.00');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// productQuantity reads the current stock for one product, failing the test on error.
func productQuantity(t *testing.T, pool *pgxpool.Pool, productID int64) int {
	t.Helper()
	var qty int
	err := pool.QueryRow(context.Background(),
		"SELECT quantity FROM products WHERE id = $1", productID).Scan(&qty)
	if err != nil {
		t.Fatalf("Failed to read quantity for product %d: %v", productID, err)
	}
	return qty
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}
