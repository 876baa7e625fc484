// Package groups manages the chart-of-accounts group tree. Groups form a
// bounded-depth tree per company; every write re-validates the parent chain
// before anything is persisted.
package groups

import "time"

// Nature classifies a group within the chart of accounts.
type Nature string

const (
	NatureAssets      Nature = "assets"
	NatureLiabilities Nature = "liabilities"
	NatureIncome      Nature = "income"
	NatureExpenses    Nature = "expenses"
)

// Valid reports whether the nature is one of the known values.
func (n Nature) Valid() bool {
	switch n {
	case NatureAssets, NatureLiabilities, NatureIncome, NatureExpenses:
		return true
	}
	return false
}

// MaxGroupLevel bounds the depth of the group tree. A root group sits at
// level 0.
const MaxGroupLevel = 3

// AccountGroup is a node in the chart-of-accounts tree.
type AccountGroup struct {
	ID            int64      `json:"id"`
	CompanyID     int64      `json:"companyId"`
	Name          string     `json:"name"`
	ParentGroupID *int64     `json:"parentGroupId,omitempty"`
	Nature        Nature     `json:"nature"`
	GroupLevel    int        `json:"groupLevel"`
	IsDeleted     bool       `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
