// Package orders implements POS orders and the payment reconcile that keeps
// an order, its receipt ledger and any linked pay-later record consistent.
package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is derived from paid vs total amount, never set directly.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusHold      Status = "hold"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusHold, StatusCancelled:
		return true
	}
	return false
}

// OrderItem is one line of a POS order. Lines are stored embedded in the
// order document; they have no independent lifecycle.
type OrderItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// LineTotal returns quantity times unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PosOrder is a point-of-sale order.
type PosOrder struct {
	ID            int64           `json:"id"`
	CompanyID     int64           `json:"companyId"`
	OrderNo       string          `json:"orderNo"`
	CustomerID    *int64          `json:"customerId,omitempty"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	Status        Status          `json:"status"`
	HoldDate      *time.Time      `json:"holdDate,omitempty"`
	PayLaterID    *int64          `json:"payLaterId,omitempty"`
	IsDeleted     bool            `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ItemsTotal sums the line totals.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
