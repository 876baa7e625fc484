package groups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nimbus-retail/nimbus-retail/internal/platform/db"
	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Repository abstracts account-group storage. All reads filter soft-deleted
// rows.
type Repository interface {
	Create(ctx context.Context, group AccountGroup) (AccountGroup, error)
	Get(ctx context.Context, companyID, id int64) (AccountGroup, error)
	List(ctx context.Context, companyID int64) ([]AccountGroup, error)
	Update(ctx context.Context, group AccountGroup) error
	UpdateLevel(ctx context.Context, companyID, id int64, level int) error
	SoftDelete(ctx context.Context, companyID, id int64) error
	FindActiveByName(ctx context.Context, companyID int64, name string) (*AccountGroup, error)
	ListChildren(ctx context.Context, companyID, parentID int64) ([]AccountGroup, error)
	ParentOf(ctx context.Context, companyID, groupID int64) (*int64, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// dbtx is the query surface shared by pools and transactions.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	pool *pgxpool.Pool
	q    dbtx
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, q: pool}
}

const groupColumns = `id, company_id, name, parent_group_id, nature, group_level, is_deleted, created_at, updated_at`

func (r *repository) Create(ctx context.Context, group AccountGroup) (AccountGroup, error) {
	query := `
		INSERT INTO account_groups (company_id, name, parent_group_id, nature, group_level, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $6)
		RETURNING ` + groupColumns
	return r.scanRow(r.q.QueryRow(ctx, query, group.CompanyID, group.Name, group.ParentGroupID, group.Nature, group.GroupLevel, time.Now()))
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (AccountGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM account_groups WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	return r.scanRow(r.q.QueryRow(ctx, query, companyID, id))
}

func (r *repository) List(ctx context.Context, companyID int64) ([]AccountGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM account_groups WHERE company_id = $1 AND NOT is_deleted ORDER BY group_level, name`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: list account groups: %v", shared.ErrStorageUnavailable, err)
	}
	defer rows.Close()
	return scanGroups(rows)
}

func (r *repository) Update(ctx context.Context, group AccountGroup) error {
	query := `
		UPDATE account_groups
		SET name = $3, parent_group_id = $4, nature = $5, group_level = $6, updated_at = $7
		WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.q.Exec(ctx, query, group.CompanyID, group.ID, group.Name, group.ParentGroupID, group.Nature, group.GroupLevel, time.Now())
	if err != nil {
		return fmt.Errorf("%w: update account group: %v", shared.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateLevel(ctx context.Context, companyID, id int64, level int) error {
	query := `UPDATE account_groups SET group_level = $3, updated_at = $4 WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.q.Exec(ctx, query, companyID, id, level, time.Now())
	if err != nil {
		return fmt.Errorf("%w: update group level: %v", shared.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, companyID, id int64) error {
	query := `UPDATE account_groups SET is_deleted = true, updated_at = $3 WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	tag, err := r.q.Exec(ctx, query, companyID, id, time.Now())
	if err != nil {
		return fmt.Errorf("%w: delete account group: %v", shared.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) FindActiveByName(ctx context.Context, companyID int64, name string) (*AccountGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM account_groups WHERE company_id = $1 AND lower(name) = lower($2) AND NOT is_deleted`
	g, err := r.scanRow(r.q.QueryRow(ctx, query, companyID, name))
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) ListChildren(ctx context.Context, companyID, parentID int64) ([]AccountGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM account_groups WHERE company_id = $1 AND parent_group_id = $2 AND NOT is_deleted`
	rows, err := r.q.Query(ctx, query, companyID, parentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list group children: %v", shared.ErrStorageUnavailable, err)
	}
	defer rows.Close()
	return scanGroups(rows)
}

func (r *repository) ParentOf(ctx context.Context, companyID, groupID int64) (*int64, error) {
	query := `SELECT parent_group_id FROM account_groups WHERE company_id = $1 AND id = $2 AND NOT is_deleted`
	var parent *int64
	if err := r.q.QueryRow(ctx, query, companyID, groupID).Scan(&parent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: resolve group parent: %v", shared.ErrStorageUnavailable, err)
	}
	return parent, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if r.pool == nil {
		// Already inside a transaction; reuse it.
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{q: tx})
	})
}

func (r *repository) scanRow(row pgx.Row) (AccountGroup, error) {
	var g AccountGroup
	err := row.Scan(&g.ID, &g.CompanyID, &g.Name, &g.ParentGroupID, &g.Nature, &g.GroupLevel, &g.IsDeleted, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountGroup{}, shared.ErrNotFound
		}
		return AccountGroup{}, fmt.Errorf("%w: account group scan: %v", shared.ErrStorageUnavailable, err)
	}
	return g, nil
}

func scanGroups(rows pgx.Rows) ([]AccountGroup, error) {
	var out []AccountGroup
	for rows.Next() {
		var g AccountGroup
		err := rows.Scan(&g.ID, &g.CompanyID, &g.Name, &g.ParentGroupID, &g.Nature, &g.GroupLevel, &g.IsDeleted, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: account group scan: %v", shared.ErrStorageUnavailable, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
