package payments

import "context"

// Service reads the receipt ledger.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListByOrder returns an order's receipts in emission order.
func (s *Service) ListByOrder(ctx context.Context, companyID, orderID int64) ([]PosPayment, error) {
	return s.repo.ListByOrder(ctx, companyID, orderID)
}
