package paylater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Repository abstracts pay-later storage.
type Repository interface {
	Create(ctx context.Context, record PayLater) (PayLater, error)
	Get(ctx context.Context, companyID, id int64) (PayLater, error)
	ListByCustomer(ctx context.Context, companyID, customerID int64) ([]PayLater, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const payLaterColumns = `id, company_id, customer_id, pos_order_id, total_amount::text, paid_amount::text, due_amount::text, status, is_deleted, created_at, updated_at`

func (r *repository) Create(ctx context.Context, record PayLater) (PayLater, error) {
	const q = `
		INSERT INTO pay_laters (company_id, customer_id, pos_order_id, total_amount, paid_amount, due_amount, status, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $8)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q,
		record.CompanyID, record.CustomerID, record.PosOrderID,
		record.TotalAmount.String(), record.PaidAmount.String(), record.DueAmount.String(),
		record.Status, time.Now()).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return PayLater{}, fmt.Errorf("%w: create pay-later: %v", shared.ErrStorageUnavailable, err)
	}
	return record, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (PayLater, error) {
	q := `SELECT ` + payLaterColumns + ` FROM pay_laters WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	return ScanRow(r.db.QueryRow(ctx, q, companyID, id))
}

func (r *repository) ListByCustomer(ctx context.Context, companyID, customerID int64) ([]PayLater, error) {
	q := `SELECT ` + payLaterColumns + ` FROM pay_laters WHERE company_id = $1 AND customer_id = $2 AND NOT is_deleted ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, companyID, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list pay-laters: %v", shared.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []PayLater
	for rows.Next() {
		record, err := ScanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// ScanRow reads one pay-later row in payLaterColumns order. Shared with the
// orders repository, which updates pay-later rows inside its reconcile
// transaction.
func ScanRow(row pgx.Row) (PayLater, error) {
	var p PayLater
	var total, paid, due string
	err := row.Scan(&p.ID, &p.CompanyID, &p.CustomerID, &p.PosOrderID, &total, &paid, &due, &p.Status, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PayLater{}, shared.ErrNotFound
		}
		return PayLater{}, fmt.Errorf("%w: pay-later scan: %v", shared.ErrStorageUnavailable, err)
	}
	if p.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return PayLater{}, fmt.Errorf("%w: pay-later total: %v", shared.ErrStorageUnavailable, err)
	}
	if p.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return PayLater{}, fmt.Errorf("%w: pay-later paid: %v", shared.ErrStorageUnavailable, err)
	}
	if p.DueAmount, err = decimal.NewFromString(due); err != nil {
		return PayLater{}, fmt.Errorf("%w: pay-later due: %v", shared.ErrStorageUnavailable, err)
	}
	return p, nil
}

// Columns exposes the canonical select list for cross-package queries.
func Columns() string { return payLaterColumns }
