package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nimbus-retail/nimbus-retail/internal/masterdata/customers"
	"github.com/nimbus-retail/nimbus-retail/internal/masterdata/products"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/paylater"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/payments"
	"github.com/nimbus-retail/nimbus-retail/internal/sequence"
	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// ProductVerifier checks that referenced products exist.
type ProductVerifier interface {
	VerifyExist(ctx context.Context, companyID int64, ids []int64) error
}

// CustomerVerifier checks that a referenced customer exists.
type CustomerVerifier interface {
	VerifyExists(ctx context.Context, companyID, id int64) error
}

// ResyncEnqueuer schedules a pay-later re-sync for an order. Nil disables
// enqueueing; the sync already ran inside the transaction, the job is a
// compensating re-run for operators.
type ResyncEnqueuer interface {
	EnqueuePayLaterResync(ctx context.Context, companyID, orderID int64) error
}

var (
	_ ProductVerifier  = (*products.Service)(nil)
	_ CustomerVerifier = (*customers.Service)(nil)
)

// Service orchestrates POS order writes. Every money-moving path runs
// through BuildPlan and executes inside one repository transaction.
type Service struct {
	repo      Repository
	products  ProductVerifier
	customers CustomerVerifier
	allocator *sequence.Allocator
	enqueuer  ResyncEnqueuer
	logger    *slog.Logger

	now func() time.Time
}

// NewService builds a Service. enqueuer may be nil.
func NewService(repo Repository, productSvc ProductVerifier, customerSvc CustomerVerifier, allocator *sequence.Allocator, enqueuer ResyncEnqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		products:  productSvc,
		customers: customerSvc,
		allocator: allocator,
		enqueuer:  enqueuer,
		logger:    logger,
		now:       time.Now,
	}
}

// Result is the outcome of a create or edit: the persisted order plus any
// receipt appended and the pay-later record after sync.
type Result struct {
	Order    PosOrder
	Receipt  *payments.PosPayment
	PayLater *paylater.PayLater
}

// CreateOrderInput is the validated input for Create.
type CreateOrderInput struct {
	CompanyID  int64
	OrderNo    string
	CustomerID *int64
	Items      []OrderItem
	PaidAmount decimal.Decimal
	Status     Status
	PayLaterID *int64
}

// UpdateOrderInput is the validated input for Update. Nil fields keep the
// stored value.
type UpdateOrderInput struct {
	Items      []OrderItem
	PaidAmount *decimal.Decimal
	Status     *Status
	PayLaterID *int64
}

// Create places a new order, appending a receipt for any amount collected
// and pushing totals into a linked pay-later record. All writes share one
// transaction; every reference is validated before the first write.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (Result, error) {
	if len(input.Items) == 0 {
		return Result{}, fmt.Errorf("%w: order needs at least one item", shared.ErrValidation)
	}
	if err := s.verifyItems(ctx, input.CompanyID, input.Items); err != nil {
		return Result{}, err
	}
	if input.CustomerID != nil {
		if err := s.customers.VerifyExists(ctx, input.CompanyID, *input.CustomerID); err != nil {
			return Result{}, err
		}
	}
	var linked *paylater.PayLater
	if input.PayLaterID != nil {
		record, err := s.repo.GetPayLater(ctx, input.CompanyID, *input.PayLaterID)
		if err != nil {
			return Result{}, fmt.Errorf("pay-later %d: %w", *input.PayLaterID, err)
		}
		linked = &record
	}

	orderNo := input.OrderNo
	if orderNo == "" {
		var err error
		orderNo, err = s.allocator.Allocate(ctx, sequence.Scope{
			CompanyID: input.CompanyID,
			Module:    sequence.ModulePosOrder,
			Prefix:    "POS",
		})
		if err != nil {
			return Result{}, err
		}
	}

	status := input.Status
	if status == "" {
		status = StatusPending
	}

	plan, err := BuildPlan(PosOrder{
		CompanyID:   input.CompanyID,
		OrderNo:     orderNo,
		CustomerID:  input.CustomerID,
		Items:       input.Items,
		TotalAmount: ItemsTotal(input.Items),
		PaidAmount:  input.PaidAmount,
		Status:      status,
		PayLaterID:  input.PayLaterID,
	}, nil, s.now())
	if err != nil {
		return Result{}, err
	}

	return s.execute(ctx, plan, linked)
}

// Update edits an order, appending a receipt only for a positive paid
// delta and re-syncing the linked pay-later record.
func (s *Service) Update(ctx context.Context, companyID, id int64, input UpdateOrderInput) (Result, error) {
	previous, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Result{}, err
	}

	merged := previous
	if input.Items != nil {
		if len(input.Items) == 0 {
			return Result{}, fmt.Errorf("%w: order needs at least one item", shared.ErrValidation)
		}
		if err := s.verifyItems(ctx, companyID, input.Items); err != nil {
			return Result{}, err
		}
		merged.Items = input.Items
		merged.TotalAmount = ItemsTotal(input.Items)
	}
	if input.PaidAmount != nil {
		merged.PaidAmount = *input.PaidAmount
	}
	if input.Status != nil {
		merged.Status = *input.Status
	}
	if input.PayLaterID != nil {
		merged.PayLaterID = input.PayLaterID
	}

	var linked *paylater.PayLater
	if merged.PayLaterID != nil {
		record, err := s.repo.GetPayLater(ctx, companyID, *merged.PayLaterID)
		if err != nil {
			return Result{}, fmt.Errorf("pay-later %d: %w", *merged.PayLaterID, err)
		}
		linked = &record
	}

	plan, err := BuildPlan(merged, &previous, s.now())
	if err != nil {
		return Result{}, err
	}

	return s.execute(ctx, plan, linked)
}

// Hold parks an order. The hold date is stamped only when the order was not
// already on hold.
func (s *Service) Hold(ctx context.Context, companyID, id int64) (Result, error) {
	status := StatusHold
	return s.Update(ctx, companyID, id, UpdateOrderInput{Status: &status})
}

// Get returns an active order.
func (s *Service) Get(ctx context.Context, companyID, id int64) (PosOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns active orders with a total count.
func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) ([]PosOrder, int, error) {
	return s.repo.List(ctx, companyID, filter)
}

// SoftDelete marks an order deleted.
func (s *Service) SoftDelete(ctx context.Context, companyID, id int64) error {
	return s.repo.SoftDelete(ctx, companyID, id)
}

// ResyncPayLater re-pushes an order's totals into its linked pay-later
// record. Computed entirely from the order's current state, so running it
// any number of times converges on the same result.
func (s *Service) ResyncPayLater(ctx context.Context, companyID, orderID int64) error {
	order, err := s.repo.Get(ctx, companyID, orderID)
	if err != nil {
		return err
	}
	if order.PayLaterID == nil {
		return nil
	}
	record, err := s.repo.GetPayLater(ctx, companyID, *order.PayLaterID)
	if err != nil {
		return err
	}
	updated := record
	updated.ApplyOrder(order.ID, order.TotalAmount, order.PaidAmount)
	if payLaterInSync(record, updated) {
		return nil
	}
	return s.repo.UpdatePayLater(ctx, updated)
}

func (s *Service) execute(ctx context.Context, plan Plan, linked *paylater.PayLater) (Result, error) {
	var result Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		order := plan.Order
		var err error
		if order.ID == 0 {
			order, err = repo.Create(ctx, order)
		} else {
			err = repo.Update(ctx, order)
		}
		if err != nil {
			return err
		}
		result.Order = order

		if plan.ReceiptAmount.GreaterThan(decimal.Zero) {
			receipt, err := s.emitReceipt(ctx, repo, order, plan.ReceiptAmount)
			if err != nil {
				return err
			}
			result.Receipt = receipt
		}

		if linked != nil {
			updated := *linked
			updated.ApplyOrder(order.ID, order.TotalAmount, order.PaidAmount)
			if err := repo.UpdatePayLater(ctx, updated); err != nil {
				return err
			}
			result.PayLater = &updated
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if result.PayLater != nil && s.enqueuer != nil {
		if err := s.enqueuer.EnqueuePayLaterResync(ctx, result.Order.CompanyID, result.Order.ID); err != nil && s.logger != nil {
			s.logger.Warn("enqueue pay-later resync", slog.Int64("order_id", result.Order.ID), slog.Any("error", err))
		}
	}
	return result, nil
}

// emitReceipt appends one ledger entry for the collected delta. The claim
// on a deterministic key makes a retried write a no-op instead of a second
// receipt.
func (s *Service) emitReceipt(ctx context.Context, repo Repository, order PosOrder, amount decimal.Decimal) (*payments.PosPayment, error) {
	key := uuid.NewSHA1(uuid.Nil, fmt.Appendf(nil, "pos-receipt:%d:%s", order.ID, order.PaidAmount)).String()
	if err := repo.ClaimReceiptKey(ctx, key); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			if s.logger != nil {
				s.logger.Warn("receipt already emitted", slog.Int64("order_id", order.ID), slog.String("paid", order.PaidAmount.String()))
			}
			return nil, nil
		}
		return nil, err
	}

	receiptNo, err := s.allocator.Allocate(ctx, sequence.Scope{
		CompanyID: order.CompanyID,
		Module:    sequence.ModuleReceipt,
		Prefix:    "RCP",
	})
	if err != nil {
		return nil, err
	}

	receipt, err := repo.InsertReceipt(ctx, payments.PosPayment{
		CompanyID:   order.CompanyID,
		ReceiptNo:   receiptNo,
		PosOrderID:  order.ID,
		Amount:      amount,
		Type:        payments.TypeReceipt,
		ReceiptType: payments.ReceiptTypeAgainstBill,
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("receipt appended",
			slog.String("receipt_no", receipt.ReceiptNo),
			slog.Int64("order_id", order.ID),
			slog.String("amount", payments.FormatAmount(receipt.Amount)))
	}
	return &receipt, nil
}

func (s *Service) verifyItems(ctx context.Context, companyID int64, items []OrderItem) error {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", shared.ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item price cannot be negative", shared.ErrValidation)
		}
		ids = append(ids, item.ProductID)
	}
	return s.products.VerifyExist(ctx, companyID, ids)
}

func payLaterInSync(a, b paylater.PayLater) bool {
	if (a.PosOrderID == nil) != (b.PosOrderID == nil) {
		return false
	}
	if a.PosOrderID != nil && *a.PosOrderID != *b.PosOrderID {
		return false
	}
	return a.TotalAmount.Equal(b.TotalAmount) &&
		a.PaidAmount.Equal(b.PaidAmount) &&
		a.DueAmount.Equal(b.DueAmount) &&
		a.Status == b.Status
}
