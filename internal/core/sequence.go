package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Document number prefixes. The zero-padding is cosmetic: counters beyond 999
// render unpadded (RG-1000), so there is no upper bound.
const (
	billNumberPrefix       = "RG"
	creditNoteNumberPrefix = "CN"
)

// SequenceAllocator issues the next human-readable document number from the
// shared counter pair on the shop_settings singleton.
//
// Both methods run inside the caller's transaction so that the counter
// increment commits or rolls back together with the document and stock writes
// it numbers. The single-row UPDATE is atomic under concurrent callers:
// numbers are never reused, and a rolled-back transaction releases its number
// along with everything else.
type SequenceAllocator interface {
	NextBillNumber(ctx context.Context, tx pgx.Tx) (string, error)
	NextCreditNoteNumber(ctx context.Context, tx pgx.Tx) (string, error)
}

type sequenceAllocator struct{}

func NewSequenceAllocator() SequenceAllocator {
	return &sequenceAllocator{}
}

func (a *sequenceAllocator) NextBillNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	return nextNumber(ctx, tx, billNumberPrefix, "last_bill_number")
}

func (a *sequenceAllocator) NextCreditNoteNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	return nextNumber(ctx, tx, creditNoteNumberPrefix, "last_credit_note_number")
}

func nextNumber(ctx context.Context, tx pgx.Tx, prefix, column string) (string, error) {
	// column is one of two compile-time constants, never user input.
	var n int64
	query := fmt.Sprintf(`
		UPDATE shop_settings
		SET %s = %s + 1, updated_at = NOW()
		WHERE id = 1
		RETURNING %s
	`, column, column, column)
	if err := tx.QueryRow(ctx, query).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("shop settings row missing, run migrations")
		}
		return "", fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return FormatDocumentNumber(prefix, n), nil
}

// FormatDocumentNumber renders a counter value as the stable external number
// format: prefix, hyphen, counter zero-padded to width 3.
func FormatDocumentNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}
