package types

import "time"

// OrderUpdatesQueue carries order status changes to the dashboard broadcast worker.
const OrderUpdatesQueue = "checkout.order.updates"

// OrderUpdate is the event body published whenever an order changes status.
type OrderUpdate struct {
	OrderID       string    `json:"order_id"`
	AccountID     string    `json:"account_id"`
	Status        string    `json:"status"`
	GrossAmount   int64     `json:"gross_amount"`
	TransactionID string    `json:"transaction_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
