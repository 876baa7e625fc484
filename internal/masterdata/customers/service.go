package customers

import (
	"context"
	"fmt"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Service handles customer business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a customer.
func (s *Service) Create(ctx context.Context, companyID int64, name, phone string) (Customer, error) {
	if name == "" {
		return Customer{}, fmt.Errorf("%w: customer name required", shared.ErrValidation)
	}
	return s.repo.Create(ctx, Customer{CompanyID: companyID, Name: name, Phone: phone})
}

// Get returns an active customer.
func (s *Service) Get(ctx context.Context, companyID, id int64) (Customer, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns all active customers for a company.
func (s *Service) List(ctx context.Context, companyID int64) ([]Customer, error) {
	return s.repo.List(ctx, companyID)
}

// VerifyExists fails with ErrNotFound unless the customer is active.
func (s *Service) VerifyExists(ctx context.Context, companyID, id int64) error {
	if _, err := s.repo.Get(ctx, companyID, id); err != nil {
		return fmt.Errorf("customer %d: %w", id, err)
	}
	return nil
}
