package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Payment statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// orderStatusTransitions is the full transition table of the order lifecycle.
// delivered, cancelled and refunded are terminal except delivered -> refunded.
var orderStatusTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanTransitionOrderStatus reports whether from -> to is an allowed edge of
// the order lifecycle.
func CanTransitionOrderStatus(from, to string) bool {
	for _, allowed := range orderStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Address is a postal address snapshot embedded into orders. The snapshot is
// taken at checkout time and never updated afterwards.
type Address struct {
	FullName   string `json:"full_name" validate:"required,max=100"`
	Address1   string `json:"address1" validate:"required,max=200"`
	Address2   string `json:"address2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=16"`
	Country    string `json:"country" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
}

// Order is an immutable record created from a cart at checkout. Monetary
// fields and item snapshots never change after creation; only status fields,
// payment status and shipping metadata may be updated.
type Order struct {
	ID                    string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	OrderNumber           string          `json:"order_number" gorm:"uniqueIndex;type:varchar(24)"`
	UserID                string          `json:"user_id" gorm:"index;type:varchar(36)" validate:"required,uuid"`
	Status                string          `json:"status" gorm:"type:varchar(16);default:pending"`
	PaymentStatus         string          `json:"payment_status" gorm:"type:varchar(16);default:pending"`
	Subtotal              decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2)"`
	TaxAmount             decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2)"`
	ShippingAmount        decimal.Decimal `json:"shipping_amount" gorm:"type:decimal(12,2)"`
	DiscountAmount        decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2)"`
	TotalAmount           decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2)"`
	OrderDate             time.Time       `json:"order_date" gorm:"index"`
	EstimatedDeliveryDate time.Time       `json:"estimated_delivery_date"`
	DeliveredAt           *time.Time      `json:"delivered_at,omitempty"`
	ShippingAddress       Address         `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	BillingAddress        Address         `json:"billing_address" gorm:"embedded;embeddedPrefix:billing_"`
	TrackingNumber        string          `json:"tracking_number"`
	PaymentMethod         string          `json:"payment_method"`
	Notes                 string          `json:"notes"`
	Items                 []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	gorm.Model                            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// OrderItem is a frozen copy of a purchased cart line. The product snapshot
// is captured at order time and never reflects later catalog edits.
type OrderItem struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	OrderID      string          `json:"order_id" gorm:"index;type:varchar(36)" validate:"required,uuid"`
	ProductID    string          `json:"product_id" gorm:"type:varchar(36)" validate:"required,uuid"`
	Quantity     int             `json:"quantity" validate:"required,gte=1"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2)"`
	TotalPrice   decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2)"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	ProductBrand string          `json:"product_brand"`
	ProductModel string          `json:"product_model"`
	ProductImage string          `json:"product_image"`
	ProductSpecs string          `json:"product_specs"`
	gorm.Model                   // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
