package sequence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// maxAttempts bounds collision retries. Collisions only occur against
// legacy numbers the counter never issued, so hitting the cap means the
// scope's history is pathological rather than merely contended.
const maxAttempts = 20

// IssuedChecker probes whether a candidate number was already issued outside
// the counter, e.g. hand-entered numbers predating the counter table.
type IssuedChecker interface {
	Exists(ctx context.Context, scope Scope, number string) (bool, error)
}

// Allocator issues unique document numbers per scope.
type Allocator struct {
	repo    Repository
	checker IssuedChecker
	logger  *slog.Logger

	// OnRetry is invoked per collision retry, keyed by module. Wired to a
	// metrics counter in the entrypoints.
	OnRetry func(module string)
}

// NewAllocator builds an Allocator. checker may be nil when no legacy data
// exists; the counter alone then guarantees uniqueness with no retries.
func NewAllocator(repo Repository, checker IssuedChecker, logger *slog.Logger) *Allocator {
	return &Allocator{repo: repo, checker: checker, logger: logger}
}

// Allocate returns the next number for a scope, formatted canonically for
// the scope's module. Numbers are unique per scope and monotonically
// increasing through the counter row; they are not gapless (a rolled-back
// caller leaves a hole).
func (a *Allocator) Allocate(ctx context.Context, scope Scope) (string, error) {
	format := FormatFor(scope.Module)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		value, err := a.repo.NextValue(ctx, scope)
		if err != nil {
			return "", err
		}
		number := format.Render(scope.Prefix, value)
		if a.checker == nil {
			return number, nil
		}
		taken, err := a.checker.Exists(ctx, scope, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
		if a.OnRetry != nil {
			a.OnRetry(scope.Module)
		}
		if a.logger != nil {
			a.logger.Warn("sequence collision with legacy number",
				slog.String("module", scope.Module),
				slog.String("number", number))
		}
	}
	return "", fmt.Errorf("%w: scope %s/%s after %d attempts", shared.ErrSequenceExhausted, scope.Module, scope.Prefix, maxAttempts)
}

// Backfill raises a scope's counter so it clears an already-issued number.
// Malformed numbers parse as zero and leave the counter untouched.
func (a *Allocator) Backfill(ctx context.Context, scope Scope, issued string) error {
	seed := ParseTrailing(issued, scope.Prefix)
	if seed <= 0 {
		return nil
	}
	return a.repo.Raise(ctx, scope, seed)
}
