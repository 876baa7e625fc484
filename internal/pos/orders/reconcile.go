package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Plan is the outcome of reconciling an order against its previous state:
// the normalized order plus the receipt that must be appended, if any.
// Nothing is persisted here; the service executes the plan in one
// transaction.
type Plan struct {
	Order PosOrder
	// ReceiptAmount is the positive payment delta to append to the ledger,
	// zero when no receipt is due.
	ReceiptAmount decimal.Decimal
}

// BuildPlan derives the payment status and receipt delta for an order.
// previous is nil on create. The rules:
//
//   - paid ≥ total forces status completed, whatever the caller requested;
//   - a positive paid delta yields exactly one receipt for the delta;
//   - a paid reduction is rejected outright — the ledger is append-only and
//     carries no reversal entries, so a lower figure would silently desync it;
//   - holdDate is stamped only on the transition into hold.
func BuildPlan(order PosOrder, previous *PosOrder, now time.Time) (Plan, error) {
	if order.PaidAmount.IsNegative() {
		return Plan{}, fmt.Errorf("%w: paid amount cannot be negative", shared.ErrValidation)
	}
	if !order.Status.Valid() {
		return Plan{}, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, order.Status)
	}

	receipt := order.PaidAmount
	if previous != nil {
		delta := order.PaidAmount.Sub(previous.PaidAmount)
		if delta.IsNegative() {
			return Plan{}, fmt.Errorf("%w: paid amount cannot decrease (was %s)", shared.ErrValidation, previous.PaidAmount)
		}
		receipt = delta
	}

	switch {
	case order.PaidAmount.GreaterThanOrEqual(order.TotalAmount) && order.PaidAmount.GreaterThan(decimal.Zero):
		order.PaymentStatus = PaymentStatusPaid
		order.Status = StatusCompleted
	case order.PaidAmount.GreaterThan(decimal.Zero):
		order.PaymentStatus = PaymentStatusPartial
	default:
		order.PaymentStatus = PaymentStatusUnpaid
	}

	switch {
	case order.Status != StatusHold:
		if previous != nil {
			order.HoldDate = previous.HoldDate
		}
	case previous == nil || previous.Status != StatusHold:
		order.HoldDate = &now
	default:
		order.HoldDate = previous.HoldDate
	}

	return Plan{Order: order, ReceiptAmount: receipt}, nil
}
