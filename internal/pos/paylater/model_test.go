package paylater

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name string
		due  string
		paid string
		want Status
	}{
		{"nothing collected", "100", "0", StatusOpen},
		{"partially collected", "60", "40", StatusPartial},
		{"fully collected", "0", "100", StatusSettled},
		{"overcollected", "-10", "110", StatusSettled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveStatus(dec(tc.due), dec(tc.paid)))
		})
	}
}

func TestApplyOrder(t *testing.T) {
	record := PayLater{ID: 1, CompanyID: 1, CustomerID: 2, Status: StatusOpen}

	record.ApplyOrder(7, dec("200"), dec("50"))
	require.Equal(t, int64(7), *record.PosOrderID)
	require.True(t, record.DueAmount.Equal(dec("150")))
	require.Equal(t, StatusPartial, record.Status)

	// Overpayment clamps the outstanding balance at zero.
	record.ApplyOrder(7, dec("200"), dec("250"))
	require.True(t, record.DueAmount.IsZero())
	require.Equal(t, StatusSettled, record.Status)

	// Re-applying the same order state is a no-op.
	before := record
	record.ApplyOrder(7, dec("200"), dec("250"))
	require.Equal(t, before.Status, record.Status)
	require.True(t, before.DueAmount.Equal(record.DueAmount))
	require.True(t, before.TotalAmount.Equal(record.TotalAmount))
}
