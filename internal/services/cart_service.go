package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"shoten/internal/models"
	"shoten/internal/pricing"
	"shoten/internal/repositories"
)

// CartService handles business logic for the cart aggregate: lazy creation,
// the race-safe item upsert, quantity updates, removal and totals.
type CartService struct {
	txManager   repositories.TxManager
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(txManager repositories.TxManager, cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		txManager:   txManager,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetOrCreateActiveCart returns the user's active cart, creating an empty one
// if none exists. A concurrent creator losing the race on the active-cart
// uniqueness constraint falls back to fetching the winner's cart.
func (s *CartService) GetOrCreateActiveCart(userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetActiveByUserID(userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load active cart: %w", err)
	}

	newCart := &models.Cart{
		UserID:         userID,
		Status:         models.CartStatusActive,
		TotalAmount:    decimal.Zero,
		TotalItems:     0,
		LastActivityAt: time.Now(),
	}
	if err := s.cartRepo.Create(newCart); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// Another request created the cart first; use theirs.
			return s.cartRepo.GetActiveByUserID(userID)
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return newCart, nil
}

// GetCart returns the user's active cart with item snapshots refreshed from
// the catalog where the product still resolves (including removed products,
// so historical lines keep displaying).
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	cart, err := s.GetOrCreateActiveCart(userID)
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		product, err := s.productRepo.GetByIDIncludingRemoved(cart.Items[i].ProductID)
		if err != nil {
			continue // snapshot fields remain the last known display data
		}
		cart.Items[i].ProductName = product.Name
		cart.Items[i].ProductBrand = product.Brand
		cart.Items[i].ProductImage = product.ImageURL
	}
	return cart, nil
}

// AddItem adds a product to the user's active cart, or increments the
// existing line. Concurrent adds for the same (cart, product) pair never
// lose an update and never create duplicate rows: existing lines are bumped
// with a single atomic increment statement, and a lost race between two
// first adds is recovered by falling back from the duplicate-key insert to
// that same increment.
func (s *CartService) AddItem(userID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrProductUnavailable, productID)
		}
		return nil, fmt.Errorf("failed to look up product %s: %w", productID, err)
	}
	if !product.Purchasable() {
		return nil, fmt.Errorf("%w: product %s is not active", ErrProductUnavailable, productID)
	}

	cart, err := s.GetOrCreateActiveCart(userID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(func(tx repositories.TxRepos) error {
		if err := upsertItem(tx.Carts, cart.ID, product, quantity); err != nil {
			return err
		}
		return recomputeTotals(tx.Carts, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.cartRepo.GetByID(cart.ID)
}

// upsertItem implements the add-or-increment protocol against the
// transaction-scoped cart repository.
func upsertItem(carts repositories.CartRepository, cartID string, product *models.Product, quantity int) error {
	amount := pricing.LineTotal(product.Price, quantity)

	item, err := carts.GetItem(cartID, product.ID)
	if err == nil {
		return carts.IncrementItem(item.ID, quantity, amount)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	newItem := &models.CartItem{
		CartID:       cartID,
		ProductID:    product.ID,
		Quantity:     quantity,
		UnitPrice:    product.Price,
		TotalPrice:   amount,
		ProductName:  product.Name,
		ProductBrand: product.Brand,
		ProductImage: product.ImageURL,
	}
	insertErr := carts.InsertItem(newItem)
	if insertErr == nil {
		return nil
	}
	if !errors.Is(insertErr, repositories.ErrDuplicateKey) {
		return insertErr
	}

	// A concurrent first add won the insert race; the row exists now, so
	// fall back to the atomic increment against it.
	item, err = carts.GetItem(cartID, product.ID)
	if err != nil {
		// The row vanished again between the conflict and the re-fetch.
		// Propagate the original conflict rather than looping.
		return insertErr
	}
	return carts.IncrementItem(item.ID, quantity, amount)
}

// UpdateItemQuantity overwrites a line's quantity. The acting user must own
// the cart containing the item.
func (s *CartService) UpdateItemQuantity(userID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	item, cart, err := s.resolveOwnedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	totalPrice := pricing.LineTotal(item.UnitPrice, quantity)
	if err := s.cartRepo.UpdateItemQuantity(item.ID, quantity, totalPrice); err != nil {
		return nil, err
	}
	if err := recomputeTotals(s.cartRepo, cart.ID); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cart.ID)
}

// RemoveItem deletes a line from the user's cart.
func (s *CartService) RemoveItem(userID, itemID string) (*models.Cart, error) {
	item, cart, err := s.resolveOwnedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.DeleteItem(item.ID); err != nil {
		return nil, err
	}
	if err := recomputeTotals(s.cartRepo, cart.ID); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cart.ID)
}

// ClearCart deletes all items of the user's active cart.
func (s *CartService) ClearCart(userID string) (*models.Cart, error) {
	cart, err := s.GetOrCreateActiveCart(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.DeleteItems(cart.ID); err != nil {
		return nil, err
	}
	if err := recomputeTotals(s.cartRepo, cart.ID); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cart.ID)
}

// resolveOwnedItem loads an item and checks the acting user owns its cart.
func (s *CartService) resolveOwnedItem(userID, itemID string) (*models.CartItem, *models.Cart, error) {
	item, err := s.cartRepo.GetItemByID(itemID)
	if err != nil {
		return nil, nil, err
	}
	cart, err := s.cartRepo.GetByID(item.CartID)
	if err != nil {
		return nil, nil, err
	}
	if cart.UserID != userID {
		return nil, nil, fmt.Errorf("%w: cart item %s", ErrAccessDenied, itemID)
	}
	return item, cart, nil
}

// recomputeTotals is the single source of truth for cart totals: it sums the
// live items' totals and quantities exactly and writes them together with a
// fresh activity timestamp. Totals are never updated piecemeal elsewhere.
func recomputeTotals(carts repositories.CartRepository, cartID string) error {
	items, err := carts.GetItems(cartID)
	if err != nil {
		return err
	}
	totalAmount := decimal.Zero
	totalItems := 0
	for _, item := range items {
		totalAmount = totalAmount.Add(item.TotalPrice)
		totalItems += item.Quantity
	}
	return carts.UpdateTotals(cartID, totalAmount, totalItems, time.Now())
}
