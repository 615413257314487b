package models

import (
	"time"
)

// Item is a sellable catalog entry. BasePrice is in minor currency units.
type Item struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Vertical    string         `json:"vertical" gorm:"type:varchar(50);not null;index"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	BasePrice   int64          `json:"base_price" gorm:"not null"`
	Tiers       []DiscountTier `json:"tiers" gorm:"foreignKey:ItemID"`
	Modifiers   []Modifier     `json:"modifiers" gorm:"foreignKey:ItemID"`
	MemberOnlyDiscount bool    `json:"member_only_discount" gorm:"not null;default:false"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Item) TableName() string {
	return "items"
}

// DiscountTier applies either a fixed per-unit deduction or a percentage multiplier,
// never both. MinimumQuantity values are unique per item.
type DiscountTier struct {
	ID              string   `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID          string   `json:"item_id" gorm:"type:uuid;not null;uniqueIndex:idx_tier_item_minqty"`
	MinimumQuantity int      `json:"minimum_quantity" gorm:"not null;uniqueIndex:idx_tier_item_minqty"`
	FixedAmount     int64    `json:"fixed_amount" gorm:"not null;default:0"`
	Percentage      float64  `json:"percentage" gorm:"not null;default:0"`
}

func (DiscountTier) TableName() string {
	return "discount_tiers"
}

// Modifier is a configurable option on an item (size, add-on, phase). Pure data,
// surfaced to the cart; PriceDelta adjusts the unit price before discounting.
type Modifier struct {
	ID         string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID     string `json:"item_id" gorm:"type:uuid;not null;index"`
	SKU        string `json:"sku" gorm:"type:varchar(100);not null;index"`
	Name       string `json:"name" gorm:"type:varchar(255);not null"`
	PriceDelta int64  `json:"price_delta" gorm:"not null;default:0"`
}

func (Modifier) TableName() string {
	return "modifiers"
}
