// Package paylater tracks deferred-payment ledgers. A pay-later record is
// kept consistent with its linked POS order by a one-directional push: the
// order's reconcile overwrites the totals here, never the other way round.
package paylater

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status reflects how much of the deferred balance has been collected.
type Status string

const (
	StatusOpen    Status = "open"
	StatusPartial Status = "partial"
	StatusSettled Status = "settled"
)

// PayLater is a deferred-payment ledger record.
type PayLater struct {
	ID          int64           `json:"id"`
	CompanyID   int64           `json:"companyId"`
	CustomerID  int64           `json:"customerId"`
	PosOrderID  *int64          `json:"posOrderId,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	DueAmount   decimal.Decimal `json:"dueAmount"`
	Status      Status          `json:"status"`
	IsDeleted   bool            `json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// DeriveStatus computes the status for a due/paid pair.
func DeriveStatus(due, paid decimal.Decimal) Status {
	switch {
	case due.LessThanOrEqual(decimal.Zero):
		return StatusSettled
	case paid.GreaterThan(decimal.Zero):
		return StatusPartial
	default:
		return StatusOpen
	}
}

// ApplyOrder overwrites the record's totals from its linked order and
// recomputes the derived fields. The operation is computed purely from the
// order's current state, so re-running it is always safe.
func (p *PayLater) ApplyOrder(orderID int64, total, paid decimal.Decimal) {
	p.PosOrderID = &orderID
	p.TotalAmount = total
	p.PaidAmount = paid
	p.DueAmount = decimal.Max(decimal.Zero, total.Sub(paid))
	p.Status = DeriveStatus(p.DueAmount, paid)
}
