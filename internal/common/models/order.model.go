package models

import (
	"time"
)

// Order is the billable record created when a checkout flow completes. The
// idempotency key is generated client-side when the charge is first attempted and is
// unique, so a retried submit after a timeout cannot create a second order.
type Order struct {
	ID             string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID        string     `json:"order_id" gorm:"type:varchar(100);uniqueIndex;not null"`
	IdempotencyKey string     `json:"idempotency_key" gorm:"type:varchar(100);uniqueIndex;not null"`
	AccountID      string     `json:"account_id" gorm:"type:uuid;not null;index"`
	Vertical       string     `json:"vertical" gorm:"type:varchar(50);not null"`
	PlanID         string     `json:"plan_id" gorm:"type:uuid"`
	CardID         string     `json:"card_id" gorm:"type:uuid"`
	GrossAmount    int64      `json:"gross_amount" gorm:"not null"`
	Lines          JSONB      `json:"lines" gorm:"type:jsonb;not null"`
	PaymentType    string     `json:"payment_type" gorm:"type:varchar(50)"`
	TransactionID  string     `json:"transaction_id" gorm:"type:varchar(255)"`
	Status         string     `json:"status" gorm:"type:varchar(50);not null;default:'pending';index"`
	ReceiptKey     string     `json:"receipt_key" gorm:"type:varchar(255)"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	PaidAt         *time.Time `json:"paid_at"`
}

func (Order) TableName() string {
	return "orders"
}
