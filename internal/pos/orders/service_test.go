package orders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nimbus-retail/nimbus-retail/internal/pos/paylater"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/payments"
	"github.com/nimbus-retail/nimbus-retail/internal/sequence"
	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

type memoryOrderRepo struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]PosOrder
	receipts  []payments.PosPayment
	payLaters map[int64]paylater.PayLater
	claimed   map[string]bool
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{
		orders:    map[int64]PosOrder{},
		payLaters: map[int64]paylater.PayLater{},
		claimed:   map[string]bool{},
	}
}

func (m *memoryOrderRepo) Create(_ context.Context, order PosOrder) (PosOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	m.orders[order.ID] = order
	return order, nil
}

func (m *memoryOrderRepo) Get(_ context.Context, companyID, id int64) (PosOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.CompanyID != companyID || order.IsDeleted {
		return PosOrder{}, fmt.Errorf("%w: pos order %d", shared.ErrNotFound, id)
	}
	return order, nil
}

func (m *memoryOrderRepo) List(_ context.Context, companyID int64, filter ListFilter) ([]PosOrder, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PosOrder
	for _, order := range m.orders {
		if order.CompanyID != companyID || order.IsDeleted {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		out = append(out, order)
	}
	return out, len(out), nil
}

func (m *memoryOrderRepo) Update(_ context.Context, order PosOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return fmt.Errorf("%w: pos order %d", shared.ErrNotFound, order.ID)
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memoryOrderRepo) SoftDelete(_ context.Context, companyID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.CompanyID != companyID {
		return fmt.Errorf("%w: pos order %d", shared.ErrNotFound, id)
	}
	order.IsDeleted = true
	m.orders[id] = order
	return nil
}

func (m *memoryOrderRepo) InsertReceipt(_ context.Context, receipt payments.PosPayment) (payments.PosPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt.ID = int64(len(m.receipts) + 1)
	m.receipts = append(m.receipts, receipt)
	return receipt, nil
}

func (m *memoryOrderRepo) ClaimReceiptKey(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed[key] {
		return fmt.Errorf("%w: key %s", shared.ErrIdempotencyConflict, key)
	}
	m.claimed[key] = true
	return nil
}

func (m *memoryOrderRepo) GetPayLater(_ context.Context, companyID, id int64) (paylater.PayLater, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.payLaters[id]
	if !ok || record.CompanyID != companyID || record.IsDeleted {
		return paylater.PayLater{}, fmt.Errorf("%w: pay-later %d", shared.ErrNotFound, id)
	}
	return record, nil
}

func (m *memoryOrderRepo) UpdatePayLater(_ context.Context, record paylater.PayLater) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payLaters[record.ID]; !ok {
		return fmt.Errorf("%w: pay-later %d", shared.ErrNotFound, record.ID)
	}
	m.payLaters[record.ID] = record
	return nil
}

func (m *memoryOrderRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return fn(ctx, m)
}

type memorySequenceRepo struct {
	mu     sync.Mutex
	values map[sequence.Scope]int64
}

func (m *memorySequenceRepo) NextValue(_ context.Context, scope sequence.Scope) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[sequence.Scope]int64{}
	}
	m.values[scope]++
	return m.values[scope], nil
}

func (m *memorySequenceRepo) Current(_ context.Context, scope sequence.Scope) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[scope], nil
}

func (m *memorySequenceRepo) Raise(_ context.Context, scope sequence.Scope, seed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[sequence.Scope]int64{}
	}
	if seed > m.values[scope] {
		m.values[scope] = seed
	}
	return nil
}

type allowAllProducts struct{}

func (allowAllProducts) VerifyExist(context.Context, int64, []int64) error { return nil }

type allowAllCustomers struct{}

func (allowAllCustomers) VerifyExists(context.Context, int64, int64) error { return nil }

type rejectingProducts struct{}

func (rejectingProducts) VerifyExist(context.Context, int64, []int64) error {
	return fmt.Errorf("%w: unknown product", shared.ErrNotFound)
}

func newTestService(repo *memoryOrderRepo) *Service {
	allocator := sequence.NewAllocator(&memorySequenceRepo{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewService(repo, allowAllProducts{}, allowAllCustomers{}, allocator, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func items(price string, qty int) []OrderItem {
	return []OrderItem{{ProductID: 1, Quantity: qty, UnitPrice: dec(price)}}
}

func TestCreateAllocatesOrderNumberAndReceipt(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := newTestService(repo)

	result, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID:  1,
		Items:      items("25", 4),
		PaidAmount: dec("40"),
	})
	require.NoError(t, err)
	require.Equal(t, "POS000001", result.Order.OrderNo)
	require.True(t, result.Order.TotalAmount.Equal(dec("100")))
	require.Equal(t, PaymentStatusPartial, result.Order.PaymentStatus)
	require.NotNil(t, result.Receipt)
	require.Equal(t, "RCP1", result.Receipt.ReceiptNo)
	require.True(t, result.Receipt.Amount.Equal(dec("40")))
	require.Len(t, repo.receipts, 1)
}

func TestCreateWithoutPaymentEmitsNoReceipt(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := newTestService(repo)

	result, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID: 1,
		Items:     items("25", 4),
	})
	require.NoError(t, err)
	require.Nil(t, result.Receipt)
	require.Empty(t, repo.receipts)
	require.Equal(t, PaymentStatusUnpaid, result.Order.PaymentStatus)
}

func TestCreateKeepsCallerOrderNumber(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := newTestService(repo)

	result, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID: 1,
		OrderNo:   "POS-LEGACY-9",
		Items:     items("10", 1),
	})
	require.NoError(t, err)
	require.Equal(t, "POS-LEGACY-9", result.Order.OrderNo)
}

func TestCreateValidatesBeforeWriting(t *testing.T) {
	repo := newMemoryOrderRepo()
	allocator := sequence.NewAllocator(&memorySequenceRepo{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := NewService(repo, rejectingProducts{}, allowAllCustomers{}, allocator, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID:  1,
		Items:      items("25", 4),
		PaidAmount: dec("40"),
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.orders)
	require.Empty(t, repo.receipts)
}

func TestUpdateEmitsDeltaReceiptOnly(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID:  1,
		Items:      items("25", 4),
		PaidAmount: dec("50"),
	})
	require.NoError(t, err)

	paid := dec("80")
	result, err := svc.Update(context.Background(), 1, created.Order.ID, UpdateOrderInput{PaidAmount: &paid})
	require.NoError(t, err)
	require.NotNil(t, result.Receipt)
	require.True(t, result.Receipt.Amount.Equal(dec("30")))
	require.Len(t, repo.receipts, 2)
}

func TestUpdateRejectsPaidReduction(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID:  1,
		Items:      items("25", 4),
		PaidAmount: dec("80"),
	})
	require.NoError(t, err)

	paid := dec("50")
	_, err = svc.Update(context.Background(), 1, created.Order.ID, UpdateOrderInput{PaidAmount: &paid})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Len(t, repo.receipts, 1, "no receipt for the rejected edit")
	stored, err := repo.Get(context.Background(), 1, created.Order.ID)
	require.NoError(t, err)
	require.True(t, stored.PaidAmount.Equal(dec("80")))
}

func TestReceiptIdempotentUnderRetry(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID:  1,
		Items:      items("25", 4),
		PaidAmount: dec("40"),
	})
	require.NoError(t, err)
	require.Len(t, repo.receipts, 1)

	// A retried write for the same resulting paid figure claims the same
	// key and must not append a second receipt.
	var second *payments.PosPayment
	err = repo.WithTx(context.Background(), func(ctx context.Context, r Repository) error {
		second, err = svc.emitReceipt(ctx, r, created.Order, dec("40"))
		return err
	})
	require.NoError(t, err)
	require.Nil(t, second)
	require.Len(t, repo.receipts, 1)
}

func TestPayLaterSyncAcrossEdits(t *testing.T) {
	repo := newMemoryOrderRepo()
	repo.payLaters[5] = paylater.PayLater{
		ID:          5,
		CompanyID:   1,
		CustomerID:  9,
		TotalAmount: decimal.Zero,
		PaidAmount:  decimal.Zero,
		DueAmount:   decimal.Zero,
		Status:      paylater.StatusOpen,
	}
	svc := newTestService(repo)

	plID := int64(5)
	created, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID:  1,
		Items:      items("100", 2),
		PaidAmount: dec("200"),
		PayLaterID: &plID,
	})
	require.NoError(t, err)
	require.NotNil(t, created.PayLater)
	require.Equal(t, paylater.StatusSettled, created.PayLater.Status)
	require.True(t, created.PayLater.DueAmount.IsZero())
	require.Equal(t, created.Order.ID, *created.PayLater.PosOrderID)

	// Edit grows the total; the record reopens with the unpaid remainder.
	result, err := svc.Update(context.Background(), 1, created.Order.ID, UpdateOrderInput{
		Items: items("100", 3),
	})
	require.NoError(t, err)
	require.NotNil(t, result.PayLater)
	require.True(t, result.PayLater.TotalAmount.Equal(dec("300")))
	require.True(t, result.PayLater.DueAmount.Equal(dec("100")))
	require.Equal(t, paylater.StatusPartial, result.PayLater.Status)
}

func TestResyncPayLaterConverges(t *testing.T) {
	repo := newMemoryOrderRepo()
	repo.payLaters[5] = paylater.PayLater{
		ID: 5, CompanyID: 1, CustomerID: 9, Status: paylater.StatusOpen,
	}
	svc := newTestService(repo)

	plID := int64(5)
	created, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID:  1,
		Items:      items("100", 2),
		PaidAmount: dec("50"),
		PayLaterID: &plID,
	})
	require.NoError(t, err)

	// Skew the stored record, then resync twice; both runs land on the
	// order's figures.
	skewed := repo.payLaters[5]
	skewed.DueAmount = dec("999")
	repo.payLaters[5] = skewed

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.ResyncPayLater(context.Background(), 1, created.Order.ID))
		record := repo.payLaters[5]
		require.True(t, record.TotalAmount.Equal(dec("200")))
		require.True(t, record.PaidAmount.Equal(dec("50")))
		require.True(t, record.DueAmount.Equal(dec("150")))
		require.Equal(t, paylater.StatusPartial, record.Status)
	}
}

func TestHoldStampsDateOnce(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID: 1,
		Items:     items("10", 1),
	})
	require.NoError(t, err)

	held, err := svc.Hold(context.Background(), 1, created.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, held.Order.HoldDate)
	first := *held.Order.HoldDate

	held, err = svc.Hold(context.Background(), 1, created.Order.ID)
	require.NoError(t, err)
	require.Equal(t, first, *held.Order.HoldDate)
}

func TestSoftDeleteHidesOrder(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateOrderInput{
		CompanyID: 1,
		Items:     items("10", 1),
	})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), 1, created.Order.ID))
	_, err = svc.Get(context.Background(), 1, created.Order.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
