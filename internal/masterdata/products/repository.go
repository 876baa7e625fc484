package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Repository abstracts product storage.
type Repository interface {
	Create(ctx context.Context, product Product) (Product, error)
	Get(ctx context.Context, companyID, id int64) (Product, error)
	List(ctx context.Context, companyID int64) ([]Product, error)
	// ExistAll reports whether every id refers to an active product.
	ExistAll(ctx context.Context, companyID int64, ids []int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	const q = `
		INSERT INTO products (company_id, code, name, price, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, false, $5, $5)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, product.CompanyID, product.Code, product.Name, product.Price.String(), time.Now()).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, fmt.Errorf("%w: product code %q", shared.ErrConflict, product.Code)
		}
		return Product{}, fmt.Errorf("%w: create product: %v", shared.ErrStorageUnavailable, err)
	}
	return product, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Product, error) {
	const q = `
		SELECT id, company_id, code, name, price::text, is_deleted, created_at, updated_at
		FROM products WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	var p Product
	var price string
	err := r.db.QueryRow(ctx, q, companyID, id).
		Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &price, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, fmt.Errorf("%w: get product: %v", shared.ErrStorageUnavailable, err)
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("%w: parse product price: %v", shared.ErrStorageUnavailable, err)
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Product, error) {
	const q = `
		SELECT id, company_id, code, name, price::text, is_deleted, created_at, updated_at
		FROM products WHERE company_id = $1 AND NOT is_deleted ORDER BY name`
	rows, err := r.db.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", shared.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var price string
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &price, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan product: %v", shared.ErrStorageUnavailable, err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("%w: parse product price: %v", shared.ErrStorageUnavailable, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ExistAll(ctx context.Context, companyID int64, ids []int64) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	const q = `
		SELECT count(DISTINCT id) FROM products
		WHERE company_id = $1 AND id = ANY($2) AND NOT is_deleted`
	var count int
	if err := r.db.QueryRow(ctx, q, companyID, ids).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: check products: %v", shared.ErrStorageUnavailable, err)
	}
	distinct := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	return count == len(distinct), nil
}
