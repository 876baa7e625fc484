package orders

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuildPlanPaymentStatus(t *testing.T) {
	cases := []struct {
		name       string
		paid       string
		wantPay    PaymentStatus
		wantStatus Status
	}{
		{"unpaid", "0", PaymentStatusUnpaid, StatusPending},
		{"partial", "50", PaymentStatusPartial, StatusPending},
		{"exact", "100", PaymentStatusPaid, StatusCompleted},
		{"overpaid", "150", PaymentStatusPaid, StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := BuildPlan(PosOrder{
				TotalAmount: dec("100"),
				PaidAmount:  dec(tc.paid),
				Status:      StatusPending,
			}, nil, time.Now())
			require.NoError(t, err)
			require.Equal(t, tc.wantPay, plan.Order.PaymentStatus)
			require.Equal(t, tc.wantStatus, plan.Order.Status)
		})
	}
}

func TestBuildPlanReceiptOnCreate(t *testing.T) {
	plan, err := BuildPlan(PosOrder{
		TotalAmount: dec("100"),
		PaidAmount:  dec("40"),
		Status:      StatusPending,
	}, nil, time.Now())
	require.NoError(t, err)
	require.True(t, plan.ReceiptAmount.Equal(dec("40")), "receipt %s", plan.ReceiptAmount)
}

func TestBuildPlanReceiptIsDeltaOnEdit(t *testing.T) {
	previous := PosOrder{
		ID:          7,
		TotalAmount: dec("100"),
		PaidAmount:  dec("50"),
		Status:      StatusPending,
	}
	plan, err := BuildPlan(PosOrder{
		ID:          7,
		TotalAmount: dec("100"),
		PaidAmount:  dec("80"),
		Status:      StatusPending,
	}, &previous, time.Now())
	require.NoError(t, err)
	require.True(t, plan.ReceiptAmount.Equal(dec("30")), "receipt %s", plan.ReceiptAmount)
}

func TestBuildPlanRejectsPaidReduction(t *testing.T) {
	previous := PosOrder{
		ID:          7,
		TotalAmount: dec("100"),
		PaidAmount:  dec("80"),
		Status:      StatusPending,
	}
	_, err := BuildPlan(PosOrder{
		ID:          7,
		TotalAmount: dec("100"),
		PaidAmount:  dec("50"),
		Status:      StatusPending,
	}, &previous, time.Now())
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestBuildPlanRejectsNegativePaid(t *testing.T) {
	_, err := BuildPlan(PosOrder{
		TotalAmount: dec("100"),
		PaidAmount:  dec("-1"),
		Status:      StatusPending,
	}, nil, time.Now())
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestBuildPlanRejectsUnknownStatus(t *testing.T) {
	_, err := BuildPlan(PosOrder{
		TotalAmount: dec("100"),
		Status:      Status("shipped"),
	}, nil, time.Now())
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestBuildPlanUnchangedPaidEmitsNoReceipt(t *testing.T) {
	previous := PosOrder{
		ID:          7,
		TotalAmount: dec("100"),
		PaidAmount:  dec("50"),
		Status:      StatusPending,
	}
	plan, err := BuildPlan(PosOrder{
		ID:          7,
		TotalAmount: dec("120"),
		PaidAmount:  dec("50"),
		Status:      StatusPending,
	}, &previous, time.Now())
	require.NoError(t, err)
	require.True(t, plan.ReceiptAmount.IsZero())
}

func TestBuildPlanHoldDate(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	plan, err := BuildPlan(PosOrder{
		TotalAmount: dec("100"),
		Status:      StatusHold,
	}, nil, now)
	require.NoError(t, err)
	require.NotNil(t, plan.Order.HoldDate)
	require.Equal(t, now, *plan.Order.HoldDate)

	// Still on hold: original stamp survives.
	later := now.Add(time.Hour)
	previous := plan.Order
	plan, err = BuildPlan(PosOrder{
		TotalAmount: dec("100"),
		Status:      StatusHold,
	}, &previous, later)
	require.NoError(t, err)
	require.Equal(t, now, *plan.Order.HoldDate)

	// Leaving hold keeps the historical stamp.
	plan, err = BuildPlan(PosOrder{
		TotalAmount: dec("100"),
		Status:      StatusPending,
	}, &previous, later)
	require.NoError(t, err)
	require.Equal(t, now, *plan.Order.HoldDate)
}

func TestBuildPlanFullPaymentForcesCompletion(t *testing.T) {
	previous := PosOrder{
		ID:          3,
		TotalAmount: dec("200"),
		PaidAmount:  dec("150"),
		Status:      StatusPending,
	}
	plan, err := BuildPlan(PosOrder{
		ID:          3,
		TotalAmount: dec("200"),
		PaidAmount:  dec("200"),
		Status:      StatusPending,
	}, &previous, time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, plan.Order.Status)
	require.Equal(t, PaymentStatusPaid, plan.Order.PaymentStatus)
	require.True(t, plan.ReceiptAmount.Equal(dec("50")))
}
