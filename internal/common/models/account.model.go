package models

import (
	"time"
)

// Account is a backend customer record. The backend tolerates partial records, so
// every contact field is nullable; only the id is guaranteed.
type Account struct {
	ID               string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FirstName        *string    `json:"first_name" gorm:"type:varchar(100)"`
	LastName         *string    `json:"last_name" gorm:"type:varchar(100)"`
	OrganizationName *string    `json:"organization_name" gorm:"type:varchar(255)"`
	Email            *string    `json:"email" gorm:"type:varchar(255);index"`
	MobileNumber     *string    `json:"mobile_number" gorm:"type:varchar(50);index"`
	GatewayCustomerID string    `json:"gateway_customer_id" gorm:"type:varchar(100)"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (Account) TableName() string {
	return "accounts"
}

// PaymentCard is a tokenized payment instrument on file for an account. The raw PAN
// never reaches this service; only the gateway token and display metadata are stored.
type PaymentCard struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountID string    `json:"account_id" gorm:"type:uuid;not null;index"`
	Token     string    `json:"-" gorm:"type:varchar(255);not null"`
	Brand     string    `json:"brand" gorm:"type:varchar(50);not null"`
	Last4     string    `json:"last4" gorm:"type:varchar(4);not null"`
	ExpMonth  int       `json:"exp_month" gorm:"not null"`
	ExpYear   int       `json:"exp_year" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (PaymentCard) TableName() string {
	return "payment_cards"
}
