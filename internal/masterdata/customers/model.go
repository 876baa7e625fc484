// Package customers holds the customer register referenced by POS orders
// and pay-later ledgers.
package customers

import "time"

// Customer is a buyer known to the company.
type Customer struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"companyId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
