package paylater

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Service handles pay-later business logic outside the order reconcile
// path: opening a ledger for a customer and reading it back.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Open creates a fresh pay-later ledger for a customer. Totals start at
// zero; the linked order's reconcile pushes real figures in later.
func (s *Service) Open(ctx context.Context, companyID, customerID int64) (PayLater, error) {
	if customerID == 0 {
		return PayLater{}, fmt.Errorf("%w: customer required", shared.ErrValidation)
	}
	return s.repo.Create(ctx, PayLater{
		CompanyID:   companyID,
		CustomerID:  customerID,
		TotalAmount: decimal.Zero,
		PaidAmount:  decimal.Zero,
		DueAmount:   decimal.Zero,
		Status:      StatusOpen,
	})
}

// Get returns an active pay-later record.
func (s *Service) Get(ctx context.Context, companyID, id int64) (PayLater, error) {
	return s.repo.Get(ctx, companyID, id)
}

// ListByCustomer returns a customer's pay-later history.
func (s *Service) ListByCustomer(ctx context.Context, companyID, customerID int64) ([]PayLater, error) {
	return s.repo.ListByCustomer(ctx, companyID, customerID)
}
