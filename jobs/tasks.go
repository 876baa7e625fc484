package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePayLaterResync re-pushes an order's totals into its linked
	// pay-later record. The sync runs inside the order transaction already;
	// this task is the compensating re-run for operators and crash recovery.
	TaskTypePayLaterResync = "paylater:resync"
)

// PayLaterResyncPayload identifies the order to re-sync.
type PayLaterResyncPayload struct {
	CompanyID int64 `json:"company_id"`
	OrderID   int64 `json:"order_id"`
}

// NewPayLaterResyncTask constructs an Asynq task.
func NewPayLaterResyncTask(payload PayLaterResyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePayLaterResync, data), nil
}

// PayLaterResyncer re-derives a pay-later record from its linked order.
type PayLaterResyncer interface {
	ResyncPayLater(ctx context.Context, companyID, orderID int64) error
}

// NewPayLaterResyncHandler builds the Asynq handler for resync tasks.
// Deleted orders make the task obsolete rather than failed, so not-found
// lookups are logged and dropped without retrying.
func NewPayLaterResyncHandler(resyncer PayLaterResyncer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PayLaterResyncPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		err := resyncer.ResyncPayLater(ctx, payload.CompanyID, payload.OrderID)
		if err == nil {
			return nil
		}
		if logger != nil {
			logger.Warn("pay-later resync",
				slog.Int64("company_id", payload.CompanyID),
				slog.Int64("order_id", payload.OrderID),
				slog.Any("error", err))
		}
		if errors.Is(err, shared.ErrNotFound) {
			return asynq.SkipRetry
		}
		return err
	}
}
