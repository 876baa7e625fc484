package products

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Service handles product business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateProductInput is the validated input for Create.
type CreateProductInput struct {
	CompanyID int64
	Code      string
	Name      string
	Price     decimal.Decimal
}

// Create validates and persists a product.
func (s *Service) Create(ctx context.Context, input CreateProductInput) (Product, error) {
	if input.Code == "" || input.Name == "" {
		return Product{}, fmt.Errorf("%w: product code and name required", shared.ErrValidation)
	}
	if input.Price.IsNegative() {
		return Product{}, fmt.Errorf("%w: product price cannot be negative", shared.ErrValidation)
	}
	return s.repo.Create(ctx, Product{
		CompanyID: input.CompanyID,
		Code:      input.Code,
		Name:      input.Name,
		Price:     input.Price,
	})
}

// Get returns an active product.
func (s *Service) Get(ctx context.Context, companyID, id int64) (Product, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns all active products for a company.
func (s *Service) List(ctx context.Context, companyID int64) ([]Product, error) {
	return s.repo.List(ctx, companyID)
}

// VerifyExist fails with ErrNotFound unless every id is an active product.
func (s *Service) VerifyExist(ctx context.Context, companyID int64, ids []int64) error {
	ok, err := s.repo.ExistAll(ctx, companyID, ids)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: one or more products", shared.ErrNotFound)
	}
	return nil
}
