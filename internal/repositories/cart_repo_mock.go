package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shoten/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository. It
// upholds the same constraints as the database schema: one active cart per
// user and one item row per (cart, product) pair, both reported as
// ErrDuplicateKey. Increments happen under the repository lock, mirroring
// the single-statement atomicity of the SQL implementation.
type MockCartRepository struct {
	carts map[string]models.Cart     // by cart ID, Items not populated
	items map[string]models.CartItem // by item ID
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
		items: make(map[string]models.CartItem),
	}
}

type mockCartState struct {
	carts map[string]models.Cart
	items map[string]models.CartItem
}

// snapshot copies the full store state so a mock transaction can roll back.
func (r *MockCartRepository) snapshot() mockCartState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := mockCartState{
		carts: make(map[string]models.Cart, len(r.carts)),
		items: make(map[string]models.CartItem, len(r.items)),
	}
	for k, v := range r.carts {
		s.carts[k] = v
	}
	for k, v := range r.items {
		s.items[k] = v
	}
	return s
}

func (r *MockCartRepository) restore(s mockCartState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts = s.carts
	r.items = s.items
}

// Create adds a new cart, enforcing one active cart per user.
func (r *MockCartRepository) Create(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.Status == models.CartStatusActive {
		for _, existing := range r.carts {
			if existing.UserID == cart.UserID && existing.Status == models.CartStatusActive {
				return fmt.Errorf("%w: active cart for user %s", ErrDuplicateKey, cart.UserID)
			}
		}
	}
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	stored := *cart
	stored.Items = nil
	r.carts[cart.ID] = stored
	return nil
}

// GetByID returns a cart with its items by cart ID.
func (r *MockCartRepository) GetByID(id string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[id]
	if !ok {
		return nil, fmt.Errorf("%w: cart %s", ErrNotFound, id)
	}
	cart.Items = r.itemsOf(id)
	return &cart, nil
}

// GetActiveByUserID returns the user's active cart with its items.
func (r *MockCartRepository) GetActiveByUserID(userID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cart := range r.carts {
		if cart.UserID == userID && cart.Status == models.CartStatusActive {
			cart.Items = r.itemsOf(cart.ID)
			return &cart, nil
		}
	}
	return nil, fmt.Errorf("%w: active cart for user %s", ErrNotFound, userID)
}

// itemsOf collects the items of a cart. Caller must hold the lock.
func (r *MockCartRepository) itemsOf(cartID string) []models.CartItem {
	var items []models.CartItem
	for _, item := range r.items {
		if item.CartID == cartID {
			items = append(items, item)
		}
	}
	return items
}

// UpdateStatus transitions a cart between statuses conditionally.
func (r *MockCartRepository) UpdateStatus(cartID, fromStatus, toStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[cartID]
	if !ok || cart.Status != fromStatus {
		return fmt.Errorf("%w: cart %s not in status %s", ErrNotFound, cartID, fromStatus)
	}
	cart.Status = toStatus
	r.carts[cartID] = cart
	return nil
}

// UpdateTotals writes the recomputed totals and activity timestamp.
func (r *MockCartRepository) UpdateTotals(cartID string, totalAmount decimal.Decimal, totalItems int, lastActivityAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return fmt.Errorf("%w: cart %s", ErrNotFound, cartID)
	}
	cart.TotalAmount = totalAmount
	cart.TotalItems = totalItems
	cart.LastActivityAt = lastActivityAt
	r.carts[cartID] = cart
	return nil
}

// GetItems returns all items of a cart.
func (r *MockCartRepository) GetItems(cartID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.itemsOf(cartID), nil
}

// GetItem returns a cart line by its (cart, product) pair.
func (r *MockCartRepository) GetItem(cartID, productID string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.CartID == cartID && item.ProductID == productID {
			found := item
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: item for product %s in cart %s", ErrNotFound, productID, cartID)
}

// GetItemByID returns a cart line by its own ID.
func (r *MockCartRepository) GetItemByID(itemID string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	return &item, nil
}

// InsertItem adds a new cart line, enforcing the (cart, product) uniqueness.
func (r *MockCartRepository) InsertItem(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			return fmt.Errorf("%w: item for product %s in cart %s", ErrDuplicateKey, item.ProductID, item.CartID)
		}
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	r.items[item.ID] = *item
	return nil
}

// IncrementItem adds quantity and amount to an existing line atomically.
func (r *MockCartRepository) IncrementItem(itemID string, quantity int, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	item.Quantity += quantity
	item.TotalPrice = item.TotalPrice.Add(amount)
	r.items[itemID] = item
	return nil
}

// UpdateItemQuantity overwrites a line's quantity and derived total.
func (r *MockCartRepository) UpdateItemQuantity(itemID string, quantity int, totalPrice decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	item.Quantity = quantity
	item.TotalPrice = totalPrice
	r.items[itemID] = item
	return nil
}

// DeleteItem removes a single cart line.
func (r *MockCartRepository) DeleteItem(itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[itemID]; !ok {
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	delete(r.items, itemID)
	return nil
}

// DeleteItems removes all lines of a cart.
func (r *MockCartRepository) DeleteItems(cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
		}
	}
	return nil
}
