package orders

import "github.com/shopspring/decimal"

// OrderItemRequest is one line in a create or edit payload.
type OrderItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreatePosOrderRequest is the JSON payload for POST /pos/orders.
type CreatePosOrderRequest struct {
	OrderNo    string             `json:"order_no" validate:"omitempty,max=50"`
	CustomerID *int64             `json:"customer_id" validate:"omitempty,gt=0"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaidAmount decimal.Decimal    `json:"paid_amount"`
	Status     string             `json:"status" validate:"omitempty,oneof=pending completed hold cancelled"`
	PayLaterID *int64             `json:"pay_later_id" validate:"omitempty,gt=0"`
}

// UpdatePosOrderRequest is the JSON payload for PUT /pos/orders/{id}.
// Omitted fields keep the stored value.
type UpdatePosOrderRequest struct {
	Items      []OrderItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	PaidAmount *decimal.Decimal   `json:"paid_amount"`
	Status     *string            `json:"status" validate:"omitempty,oneof=pending completed hold cancelled"`
	PayLaterID *int64             `json:"pay_later_id" validate:"omitempty,gt=0"`
}

func toItems(reqs []OrderItemRequest) []OrderItem {
	items := make([]OrderItem, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, OrderItem{
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			UnitPrice: r.UnitPrice,
		})
	}
	return items
}
