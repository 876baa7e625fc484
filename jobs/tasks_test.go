package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

type resyncFunc func(ctx context.Context, companyID, orderID int64) error

func (f resyncFunc) ResyncPayLater(ctx context.Context, companyID, orderID int64) error {
	return f(ctx, companyID, orderID)
}

func TestPayLaterResyncHandler(t *testing.T) {
	var gotCompany, gotOrder int64
	handler := NewPayLaterResyncHandler(resyncFunc(func(_ context.Context, companyID, orderID int64) error {
		gotCompany, gotOrder = companyID, orderID
		return nil
	}), nil)

	task, err := NewPayLaterResyncTask(PayLaterResyncPayload{CompanyID: 3, OrderID: 42})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, int64(3), gotCompany)
	require.Equal(t, int64(42), gotOrder)
}

func TestPayLaterResyncHandlerDropsMissingOrder(t *testing.T) {
	handler := NewPayLaterResyncHandler(resyncFunc(func(context.Context, int64, int64) error {
		return fmt.Errorf("%w: pos order 42", shared.ErrNotFound)
	}), nil)

	task, err := NewPayLaterResyncTask(PayLaterResyncPayload{CompanyID: 3, OrderID: 42})
	require.NoError(t, err)
	err = handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPayLaterResyncHandlerRetriesTransientFailure(t *testing.T) {
	transient := errors.New("connection reset")
	handler := NewPayLaterResyncHandler(resyncFunc(func(context.Context, int64, int64) error {
		return transient
	}), nil)

	task, err := NewPayLaterResyncTask(PayLaterResyncPayload{CompanyID: 3, OrderID: 42})
	require.NoError(t, err)
	err = handler(context.Background(), task)
	require.ErrorIs(t, err, transient)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestPayLaterResyncHandlerSkipsMalformedPayload(t *testing.T) {
	handler := NewPayLaterResyncHandler(resyncFunc(func(context.Context, int64, int64) error {
		t.Fatal("resync must not run for malformed payloads")
		return nil
	}), nil)

	err := handler(context.Background(), asynq.NewTask(TaskTypePayLaterResync, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
