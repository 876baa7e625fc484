package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nimbus-retail/nimbus-retail/internal/platform/db"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/paylater"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/payments"
	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// ListFilter narrows order listings.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// Repository covers every table the reconcile transaction touches: orders,
// the receipt ledger and pay-later records. Grouping them behind one
// interface is what lets the three writes share a transaction.
type Repository interface {
	Create(ctx context.Context, order PosOrder) (PosOrder, error)
	Get(ctx context.Context, companyID, id int64) (PosOrder, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]PosOrder, int, error)
	Update(ctx context.Context, order PosOrder) error
	SoftDelete(ctx context.Context, companyID, id int64) error

	InsertReceipt(ctx context.Context, receipt payments.PosPayment) (payments.PosPayment, error)
	// ClaimReceiptKey reserves an idempotency key for a receipt emission.
	// Returns shared.ErrIdempotencyConflict when already claimed.
	ClaimReceiptKey(ctx context.Context, key string) error

	GetPayLater(ctx context.Context, companyID, id int64) (paylater.PayLater, error)
	UpdatePayLater(ctx context.Context, record paylater.PayLater) error

	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	pool        *pgxpool.Pool
	q           dbtx
	idempotency *shared.IdempotencyStore
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool, idempotency *shared.IdempotencyStore) Repository {
	return &repository{pool: pool, q: pool, idempotency: idempotency}
}

const orderColumns = `id, company_id, order_no, customer_id, items, total_amount::text, paid_amount::text, payment_status, status, hold_date, pay_later_id, is_deleted, created_at, updated_at`

func (r *repository) Create(ctx context.Context, order PosOrder) (PosOrder, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return PosOrder{}, fmt.Errorf("%w: encode order items: %v", shared.ErrValidation, err)
	}
	const q = `
		INSERT INTO pos_orders (company_id, order_no, customer_id, items, total_amount, paid_amount, payment_status, status, hold_date, pay_later_id, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, $11, $11)
		RETURNING id, created_at, updated_at`
	err = r.q.QueryRow(ctx, q,
		order.CompanyID, order.OrderNo, order.CustomerID, items,
		order.TotalAmount.String(), order.PaidAmount.String(),
		order.PaymentStatus, order.Status, order.HoldDate, order.PayLaterID, time.Now()).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return PosOrder{}, fmt.Errorf("%w: order number %q already issued", shared.ErrConflict, order.OrderNo)
		}
		return PosOrder{}, fmt.Errorf("%w: create order: %v", shared.ErrStorageUnavailable, err)
	}
	return order, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (PosOrder, error) {
	q := `SELECT ` + orderColumns + ` FROM pos_orders WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	return scanOrder(r.q.QueryRow(ctx, q, companyID, id))
}

func (r *repository) List(ctx context.Context, companyID int64, filter ListFilter) ([]PosOrder, int, error) {
	query := `SELECT ` + orderColumns + ` FROM pos_orders WHERE company_id = $1 AND NOT is_deleted`
	countQuery := `SELECT count(*) FROM pos_orders WHERE company_id = $1 AND NOT is_deleted`
	args := []any{companyID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $2`
		countQuery += ` AND status = $2`
	}

	var total int
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count orders: %v", shared.ErrStorageUnavailable, err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT %d OFFSET %d`, limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list orders: %v", shared.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []PosOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, order)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, order PosOrder) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("%w: encode order items: %v", shared.ErrValidation, err)
	}
	const q = `
		UPDATE pos_orders
		SET customer_id = $3, items = $4, total_amount = $5, paid_amount = $6,
		    payment_status = $7, status = $8, hold_date = $9, pay_later_id = $10, updated_at = $11
		WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.q.Exec(ctx, q,
		order.CompanyID, order.ID, order.CustomerID, items,
		order.TotalAmount.String(), order.PaidAmount.String(),
		order.PaymentStatus, order.Status, order.HoldDate, order.PayLaterID, time.Now())
	if err != nil {
		return fmt.Errorf("%w: update order: %v", shared.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, companyID, id int64) error {
	const q = `UPDATE pos_orders SET is_deleted = true, updated_at = $3 WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.q.Exec(ctx, q, companyID, id, time.Now())
	if err != nil {
		return fmt.Errorf("%w: delete order: %v", shared.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertReceipt(ctx context.Context, receipt payments.PosPayment) (payments.PosPayment, error) {
	const q = `
		INSERT INTO pos_payments (company_id, receipt_no, pos_order_id, amount, type, receipt_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, q,
		receipt.CompanyID, receipt.ReceiptNo, receipt.PosOrderID,
		receipt.Amount.String(), receipt.Type, receipt.ReceiptType, time.Now()).
		Scan(&receipt.ID, &receipt.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return payments.PosPayment{}, fmt.Errorf("%w: receipt number %q already issued", shared.ErrConflict, receipt.ReceiptNo)
		}
		return payments.PosPayment{}, fmt.Errorf("%w: insert receipt: %v", shared.ErrStorageUnavailable, err)
	}
	return receipt, nil
}

func (r *repository) ClaimReceiptKey(ctx context.Context, key string) error {
	return r.idempotency.CheckAndInsert(ctx, r.q, key, "pos")
}

func (r *repository) GetPayLater(ctx context.Context, companyID, id int64) (paylater.PayLater, error) {
	q := `SELECT ` + paylater.Columns() + ` FROM pay_laters WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	return paylater.ScanRow(r.q.QueryRow(ctx, q, companyID, id))
}

func (r *repository) UpdatePayLater(ctx context.Context, record paylater.PayLater) error {
	const q = `
		UPDATE pay_laters
		SET pos_order_id = $3, total_amount = $4, paid_amount = $5, due_amount = $6, status = $7, updated_at = $8
		WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.q.Exec(ctx, q,
		record.CompanyID, record.ID, record.PosOrderID,
		record.TotalAmount.String(), record.PaidAmount.String(), record.DueAmount.String(),
		record.Status, time.Now())
	if err != nil {
		return fmt.Errorf("%w: update pay-later: %v", shared.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{q: tx, idempotency: r.idempotency})
	})
}

func scanOrder(row pgx.Row) (PosOrder, error) {
	var o PosOrder
	var items []byte
	var total, paid string
	err := row.Scan(&o.ID, &o.CompanyID, &o.OrderNo, &o.CustomerID, &items, &total, &paid,
		&o.PaymentStatus, &o.Status, &o.HoldDate, &o.PayLaterID, &o.IsDeleted, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PosOrder{}, shared.ErrNotFound
		}
		return PosOrder{}, fmt.Errorf("%w: order scan: %v", shared.ErrStorageUnavailable, err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return PosOrder{}, fmt.Errorf("%w: decode order items: %v", shared.ErrStorageUnavailable, err)
		}
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return PosOrder{}, fmt.Errorf("%w: order total: %v", shared.ErrStorageUnavailable, err)
	}
	if o.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return PosOrder{}, fmt.Errorf("%w: order paid: %v", shared.ErrStorageUnavailable, err)
	}
	return o, nil
}
