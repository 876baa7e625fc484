// Package payments is the append-only POS receipt ledger. A receipt is
// written once per positive payment delta and never mutated afterwards.
package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies a ledger entry. Only receipts exist today; reversals are
// deliberately not modelled (paid-amount reductions are rejected upstream).
type Type string

// ReceiptType records what a receipt was collected against.
type ReceiptType string

const (
	TypeReceipt            Type        = "receipt"
	ReceiptTypeAgainstBill ReceiptType = "against_bill"
)

// PosPayment is one receipt ledger entry.
type PosPayment struct {
	ID          int64           `json:"id"`
	CompanyID   int64           `json:"companyId"`
	ReceiptNo   string          `json:"receiptNo"`
	PosOrderID  int64           `json:"posOrderId"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Type            `json:"type"`
	ReceiptType ReceiptType     `json:"receiptType"`
	CreatedAt   time.Time       `json:"createdAt"`
}
