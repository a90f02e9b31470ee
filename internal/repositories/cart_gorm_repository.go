package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"shoten/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// Create inserts a new cart. The partial unique index on active carts makes
// a concurrent second create fail with ErrDuplicateKey.
func (r *GORMCartRepository) Create(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := r.db.Create(cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: active cart for user %s", ErrDuplicateKey, cart.UserID)
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// GetByID retrieves a cart with its items by cart ID.
func (r *GORMCartRepository) GetByID(id string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Preload("Items").First(&cart, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cart %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get cart by ID %s: %w", id, err)
	}
	return &cart, nil
}

// GetActiveByUserID retrieves the user's active cart with its items.
func (r *GORMCartRepository) GetActiveByUserID(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").
		First(&cart, "user_id = ? AND status = ?", userID, models.CartStatusActive).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: active cart for user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get active cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// UpdateStatus transitions a cart between statuses as a conditional write.
// Zero rows affected means the cart was not in fromStatus anymore.
func (r *GORMCartRepository) UpdateStatus(cartID, fromStatus, toStatus string) error {
	res := r.db.Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, fromStatus).
		Update("status", toStatus)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart %s status: %w", cartID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: cart %s not in status %s", ErrNotFound, cartID, fromStatus)
	}
	return nil
}

// UpdateTotals writes the recomputed totals and activity timestamp.
func (r *GORMCartRepository) UpdateTotals(cartID string, totalAmount decimal.Decimal, totalItems int, lastActivityAt time.Time) error {
	res := r.db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"total_amount":     totalAmount,
			"total_items":      totalItems,
			"last_activity_at": lastActivityAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update cart %s totals: %w", cartID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: cart %s", ErrNotFound, cartID)
	}
	return nil
}

// GetItems retrieves all live items of a cart.
func (r *GORMCartRepository) GetItems(cartID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Find(&items, "cart_id = ?", cartID).Error; err != nil {
		return nil, fmt.Errorf("failed to get items for cart %s: %w", cartID, err)
	}
	return items, nil
}

// GetItem retrieves a cart line by its (cart, product) pair.
func (r *GORMCartRepository) GetItem(cartID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.First(&item, "cart_id = ? AND product_id = ?", cartID, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item for product %s in cart %s", ErrNotFound, productID, cartID)
		}
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return &item, nil
}

// GetItemByID retrieves a cart line by its own ID.
func (r *GORMCartRepository) GetItemByID(itemID string) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to get cart item %s: %w", itemID, err)
	}
	return &item, nil
}

// InsertItem inserts a new cart line. The composite unique index on
// (cart_id, product_id) turns a racing first add into ErrDuplicateKey.
func (r *GORMCartRepository) InsertItem(item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: item for product %s in cart %s", ErrDuplicateKey, item.ProductID, item.CartID)
		}
		return fmt.Errorf("failed to insert cart item: %w", err)
	}
	return nil
}

// IncrementItem adds quantity and amount to an existing line. The increment
// is issued as a single UPDATE with in-place expressions, so two concurrent
// increments both land instead of one clobbering the other's read.
func (r *GORMCartRepository) IncrementItem(itemID string, quantity int, amount decimal.Decimal) error {
	res := r.db.Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":    gorm.Expr("quantity + ?", quantity),
			"total_price": gorm.Expr("total_price + ?", amount),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to increment cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	return nil
}

// UpdateItemQuantity overwrites a line's quantity and derived total.
func (r *GORMCartRepository) UpdateItemQuantity(itemID string, quantity int, totalPrice decimal.Decimal) error {
	res := r.db.Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":    quantity,
			"total_price": totalPrice,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	return nil
}

// DeleteItem removes a single cart line.
func (r *GORMCartRepository) DeleteItem(itemID string) error {
	res := r.db.Unscoped().Delete(&models.CartItem{}, "id = ?", itemID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	return nil
}

// DeleteItems removes all lines of a cart. Hard delete, so the unique
// (cart_id, product_id) index never trips over soft-deleted leftovers.
func (r *GORMCartRepository) DeleteItems(cartID string) error {
	if err := r.db.Unscoped().Delete(&models.CartItem{}, "cart_id = ?", cartID).Error; err != nil {
		return fmt.Errorf("failed to delete items for cart %s: %w", cartID, err)
	}
	return nil
}
