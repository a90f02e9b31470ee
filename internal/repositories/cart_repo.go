package repositories

import (
	"time"

	"github.com/shopspring/decimal"

	"shoten/internal/models"
)

// CartRepository defines the interface for cart and cart item data access.
type CartRepository interface {
	// Create inserts a new cart. Returns ErrDuplicateKey if the user already
	// has an active cart (one-active-cart-per-user constraint).
	Create(cart *models.Cart) error
	GetByID(id string) (*models.Cart, error)
	// GetActiveByUserID returns the user's active cart with items loaded, or
	// ErrNotFound if none exists.
	GetActiveByUserID(userID string) (*models.Cart, error)
	// UpdateStatus transitions a cart from one status to another as a
	// conditional write. Returns ErrNotFound when no row matched, which a
	// caller must treat as a concurrent status change.
	UpdateStatus(cartID, fromStatus, toStatus string) error
	// UpdateTotals writes the recomputed aggregate totals and activity time.
	UpdateTotals(cartID string, totalAmount decimal.Decimal, totalItems int, lastActivityAt time.Time) error

	GetItems(cartID string) ([]models.CartItem, error)
	GetItem(cartID, productID string) (*models.CartItem, error)
	GetItemByID(itemID string) (*models.CartItem, error)
	// InsertItem inserts a new cart line. Returns ErrDuplicateKey when a row
	// for the same (cart, product) pair already exists.
	InsertItem(item *models.CartItem) error
	// IncrementItem adds quantity and amount to an existing line in a single
	// atomic statement, so concurrent increments never lose an update.
	IncrementItem(itemID string, quantity int, amount decimal.Decimal) error
	UpdateItemQuantity(itemID string, quantity int, totalPrice decimal.Decimal) error
	DeleteItem(itemID string) error
	DeleteItems(cartID string) error
}
