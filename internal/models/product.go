package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product statuses. A soft-deleted product counts as removed regardless of status.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product represents a catalog product offered by the reseller.
type Product struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name           string          `json:"name" validate:"required,min=3,max=100"`
	SKU            string          `json:"sku" gorm:"uniqueIndex;type:varchar(64)" validate:"required,max=64"`
	Brand          string          `json:"brand" validate:"omitempty,max=100"`
	ModelName      string          `json:"model" gorm:"column:model" validate:"omitempty,max=100"`
	Description    string          `json:"description" validate:"omitempty,max=500"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	ImageURL       string          `json:"image_url" validate:"omitempty,max=500"`
	Specifications string          `json:"specifications" validate:"omitempty,max=2000"`
	Status         string          `json:"status" gorm:"type:varchar(16);default:active" validate:"omitempty,oneof=active inactive"`
	Stock          int             `json:"stock" validate:"gte=0"`
	gorm.Model                     // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Purchasable reports whether the product may currently be added to a cart.
func (p *Product) Purchasable() bool {
	return p.Status == ProductStatusActive && !p.DeletedAt.Valid
}
