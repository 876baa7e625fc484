package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Repository abstracts the counter storage.
type Repository interface {
	// NextValue atomically increments and returns the counter for a scope,
	// creating it at 1 when absent.
	NextValue(ctx context.Context, scope Scope) (int64, error)
	// Current returns the last issued value for a scope, 0 when absent.
	Current(ctx context.Context, scope Scope) (int64, error)
	// Raise lifts the counter to at least seed. It never lowers a counter.
	Raise(ctx context.Context, scope Scope, seed int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed counter repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) NextValue(ctx context.Context, scope Scope) (int64, error) {
	const q = `
		INSERT INTO sequence_counters (company_id, module, prefix, last_value, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		ON CONFLICT (company_id, module, prefix)
		DO UPDATE SET last_value = sequence_counters.last_value + 1, updated_at = $4
		RETURNING last_value`
	var value int64
	if err := r.db.QueryRow(ctx, q, scope.CompanyID, scope.Module, scope.Prefix, time.Now()).Scan(&value); err != nil {
		return 0, fmt.Errorf("%w: sequence next value: %v", shared.ErrStorageUnavailable, err)
	}
	return value, nil
}

func (r *repository) Current(ctx context.Context, scope Scope) (int64, error) {
	const q = `
		SELECT COALESCE(MAX(last_value), 0) FROM sequence_counters
		WHERE company_id = $1 AND module = $2 AND prefix = $3`
	var value int64
	if err := r.db.QueryRow(ctx, q, scope.CompanyID, scope.Module, scope.Prefix).Scan(&value); err != nil {
		return 0, fmt.Errorf("%w: sequence current: %v", shared.ErrStorageUnavailable, err)
	}
	return value, nil
}

func (r *repository) Raise(ctx context.Context, scope Scope, seed int64) error {
	const q = `
		INSERT INTO sequence_counters (company_id, module, prefix, last_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (company_id, module, prefix)
		DO UPDATE SET last_value = GREATEST(sequence_counters.last_value, EXCLUDED.last_value), updated_at = $5`
	if _, err := r.db.Exec(ctx, q, scope.CompanyID, scope.Module, scope.Prefix, seed, time.Now()); err != nil {
		return fmt.Errorf("%w: sequence raise: %v", shared.ErrStorageUnavailable, err)
	}
	return nil
}
