package repositories

import (
	"time"

	"shoten/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// immutable after creation except for the lifecycle fields written by Update.
type OrderRepository interface {
	// Create inserts an order together with its items. Returns
	// ErrDuplicateKey if the order number is already taken.
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByNumber(orderNumber string) (*models.Order, error)
	GetByUserID(userID string) ([]models.Order, error)
	GetAll() ([]models.Order, error)
	// CountByOrderDate counts orders with order_date in [start, end).
	CountByOrderDate(start, end time.Time) (int64, error)
	ExistsByNumber(orderNumber string) (bool, error)
	// Update persists only the mutable lifecycle fields (status, payment
	// status, tracking number, delivered timestamp).
	Update(order *models.Order) error
}
