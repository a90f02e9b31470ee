package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart statuses. A cart is converted exactly once, when an order is created
// from it; abandonment is driven by an external housekeeping process.
const (
	CartStatusActive    = "active"
	CartStatusAbandoned = "abandoned"
	CartStatusConverted = "converted"
)

// Cart is a user's in-progress collection of prospective purchase lines.
// At most one cart per user is active at a time; TotalAmount and TotalItems
// are always recomputed from the live items, never mutated independently.
type Cart struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID         string          `json:"user_id" gorm:"index;type:varchar(36)" validate:"required,uuid"`
	Status         string          `json:"status" gorm:"type:varchar(16);default:active"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2)"`
	TotalItems     int             `json:"total_items"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	Items          []CartItem      `json:"items" gorm:"foreignKey:CartID"`
	gorm.Model                     // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// CartItem is one product line within a cart. The (cart_id, product_id) pair
// is uniquely constrained so a cart can never hold two rows for one product;
// concurrent first adds race on that constraint and fall back to an in-place
// increment. UnitPrice is the price at first-add time and is not re-priced
// on repeat adds.
type CartItem struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	CartID       string          `json:"cart_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_items_cart_product" validate:"required,uuid"`
	ProductID    string          `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_items_cart_product" validate:"required,uuid"`
	Quantity     int             `json:"quantity" validate:"required,gte=1"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2)"`
	TotalPrice   decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2)"`
	ProductName  string          `json:"product_name"`
	ProductBrand string          `json:"product_brand"`
	ProductImage string          `json:"product_image"`
	gorm.Model                   // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
