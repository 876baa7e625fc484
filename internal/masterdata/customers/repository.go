package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Repository abstracts customer storage.
type Repository interface {
	Create(ctx context.Context, customer Customer) (Customer, error)
	Get(ctx context.Context, companyID, id int64) (Customer, error)
	List(ctx context.Context, companyID int64) ([]Customer, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, customer Customer) (Customer, error) {
	const q = `
		INSERT INTO customers (company_id, name, phone, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, false, $4, $4)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, customer.CompanyID, customer.Name, customer.Phone, time.Now()).
		Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("%w: create customer: %v", shared.ErrStorageUnavailable, err)
	}
	return customer, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Customer, error) {
	const q = `
		SELECT id, company_id, name, phone, is_deleted, created_at, updated_at
		FROM customers WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	var c Customer
	err := r.db.QueryRow(ctx, q, companyID, id).
		Scan(&c.ID, &c.CompanyID, &c.Name, &c.Phone, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, shared.ErrNotFound
		}
		return Customer{}, fmt.Errorf("%w: get customer: %v", shared.ErrStorageUnavailable, err)
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Customer, error) {
	const q = `
		SELECT id, company_id, name, phone, is_deleted, created_at, updated_at
		FROM customers WHERE company_id = $1 AND NOT is_deleted ORDER BY name`
	rows, err := r.db.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: list customers: %v", shared.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Phone, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan customer: %v", shared.ErrStorageUnavailable, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
