package payments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nimbus-retail/nimbus-retail/internal/sequence"
	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Repository reads the receipt ledger. Writes happen inside the orders
// reconcile transaction, never through this interface.
type Repository interface {
	ListByOrder(ctx context.Context, companyID, orderID int64) ([]PosPayment, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, company_id, receipt_no, pos_order_id, amount::text, type, receipt_type, created_at`

func (r *repository) ListByOrder(ctx context.Context, companyID, orderID int64) ([]PosPayment, error) {
	q := `SELECT ` + paymentColumns + ` FROM pos_payments WHERE company_id = $1 AND pos_order_id = $2 ORDER BY id`
	rows, err := r.db.Query(ctx, q, companyID, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: list receipts: %v", shared.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []PosPayment
	for rows.Next() {
		p, err := ScanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ScanRow reads one receipt row in paymentColumns order.
func ScanRow(row pgx.Row) (PosPayment, error) {
	var p PosPayment
	var amount string
	err := row.Scan(&p.ID, &p.CompanyID, &p.ReceiptNo, &p.PosOrderID, &amount, &p.Type, &p.ReceiptType, &p.CreatedAt)
	if err != nil {
		return PosPayment{}, fmt.Errorf("%w: receipt scan: %v", shared.ErrStorageUnavailable, err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return PosPayment{}, fmt.Errorf("%w: receipt amount: %v", shared.ErrStorageUnavailable, err)
	}
	return p, nil
}

// Columns exposes the canonical select list for cross-package queries.
func Columns() string { return paymentColumns }

// NumberChecker probes issued receipt numbers so the sequence allocator can
// skip numbers hand-entered before the counter table existed.
type NumberChecker struct {
	db *pgxpool.Pool
}

// NewNumberChecker builds the checker.
func NewNumberChecker(db *pgxpool.Pool) *NumberChecker {
	return &NumberChecker{db: db}
}

// Exists implements sequence.IssuedChecker for the receipt ledger.
func (c *NumberChecker) Exists(ctx context.Context, scope sequence.Scope, number string) (bool, error) {
	if scope.Module != sequence.ModuleReceipt {
		return false, nil
	}
	const q = `SELECT EXISTS (SELECT 1 FROM pos_payments WHERE company_id = $1 AND receipt_no = $2)`
	var exists bool
	if err := c.db.QueryRow(ctx, q, scope.CompanyID, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: receipt number check: %v", shared.ErrStorageUnavailable, err)
	}
	return exists, nil
}
