// Package sequence issues human-readable document numbers per company and
// module. Counters are explicit per-scope rows updated with an atomic
// increment, so two concurrent allocations can never read the same value.
package sequence

import "time"

// Scope partitions numbering per tenant and document module.
type Scope struct {
	CompanyID int64
	Module    string
	Prefix    string
}

// Counter is the durable per-scope sequence state.
type Counter struct {
	ID        int64
	CompanyID int64
	Module    string
	Prefix    string
	LastValue int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Modules known to the allocator. Call sites pass these rather than raw strings.
const (
	ModulePurchaseOrder     = "PO"
	ModuleDebitNote         = "DN"
	ModulePurchaseDebitNote = "PDN"
	ModuleSalesDebitNote    = "SDN"
	ModuleCreditNote        = "CN"
	ModuleStockVerification = "SV"
	ModuleReceipt           = "RCP"
	ModulePosOrder          = "POS"
)
