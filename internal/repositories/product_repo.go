package repositories

import (
	"shoten/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	// GetByIDIncludingRemoved also resolves soft-deleted products, so carts
	// and orders referencing a removed product can still display it.
	GetByIDIncludingRemoved(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
