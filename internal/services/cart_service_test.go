package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shoten/internal/models"
	"shoten/internal/repositories"
	"shoten/internal/services"
)

// cartTestEnv wires a CartService against the in-memory repositories, the
// same way main wires it against GORM.
type cartTestEnv struct {
	svc      *services.CartService
	carts    *repositories.MockCartRepository
	orders   *repositories.MockOrderRepository
	products *repositories.MockProductRepository
}

func newCartTestEnv() cartTestEnv {
	carts := repositories.NewMockCartRepository()
	orders := repositories.NewMockOrderRepository()
	products := repositories.NewMockProductRepository()
	tx := repositories.NewMockTxManager(carts, orders)
	return cartTestEnv{
		svc:      services.NewCartService(tx, carts, products),
		carts:    carts,
		orders:   orders,
		products: products,
	}
}

func seedProduct(t *testing.T, products *repositories.MockProductRepository, id, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:        id,
		Name:      "Item " + id,
		SKU:       "SKU-" + id,
		Brand:     "Reburn",
		ModelName: "MDL-" + id,
		Price:     decimal.RequireFromString(price),
		Status:    models.ProductStatusActive,
		Stock:     100,
	}
	assert.NoError(t, products.Create(p))
	return p
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "got %s, want %s", got, want)
}

func TestCartService_GetOrCreateActiveCart(t *testing.T) {
	env := newCartTestEnv()

	cart, err := env.svc.GetOrCreateActiveCart("user-1")
	assert.NoError(t, err)
	assert.Equal(t, models.CartStatusActive, cart.Status)
	assert.Equal(t, 0, cart.TotalItems)
	assertDec(t, "0", cart.TotalAmount)

	// A second call finds the same cart instead of creating another.
	again, err := env.svc.GetOrCreateActiveCart("user-1")
	assert.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartService_AddItem_NewItem(t *testing.T) {
	env := newCartTestEnv()
	seedProduct(t, env.products, "prod-1", "1000")

	cart, err := env.svc.AddItem("user-1", "prod-1", 2)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assertDec(t, "1000", cart.Items[0].UnitPrice)
	assertDec(t, "2000", cart.Items[0].TotalPrice)
	assertDec(t, "2000", cart.TotalAmount)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, "prod-1", cart.Items[0].ProductID)
	assert.Equal(t, "Item prod-1", cart.Items[0].ProductName)
}

func TestCartService_AddItem_RepeatAddIncrements(t *testing.T) {
	env := newCartTestEnv()
	product := seedProduct(t, env.products, "prod-1", "1000")

	_, err := env.svc.AddItem("user-1", "prod-1", 1)
	assert.NoError(t, err)

	// The catalog price changes between adds. The line keeps its first-add
	// unit price while the increment is charged at the price of this add.
	product.Price = decimal.RequireFromString("1200")
	assert.NoError(t, env.products.Update(product))

	cart, err := env.svc.AddItem("user-1", "prod-1", 1)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assertDec(t, "1000", cart.Items[0].UnitPrice)
	assertDec(t, "2200", cart.Items[0].TotalPrice)
	assertDec(t, "2200", cart.TotalAmount)
	assert.Equal(t, 2, cart.TotalItems)
}

func TestCartService_AddItem_ProductUnavailable(t *testing.T) {
	env := newCartTestEnv()

	_, err := env.svc.AddItem("user-1", "missing", 1)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)

	inactive := seedProduct(t, env.products, "prod-2", "500")
	inactive.Status = models.ProductStatusInactive
	assert.NoError(t, env.products.Update(inactive))

	_, err = env.svc.AddItem("user-1", "prod-2", 1)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	env := newCartTestEnv()
	seedProduct(t, env.products, "prod-1", "1000")

	_, err := env.svc.AddItem("user-1", "prod-1", 0)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)
}

// Concurrent adds for the same (cart, product) pair must neither lose an
// increment nor create duplicate rows.
func TestCartService_AddItem_Concurrent(t *testing.T) {
	env := newCartTestEnv()
	seedProduct(t, env.products, "prod-1", "1000")

	const workers = 40
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.AddItem("user-1", "prod-1", 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	cart, err := env.svc.GetOrCreateActiveCart("user-1")
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1, "exactly one row per (cart, product) pair")
	assert.Equal(t, workers, cart.Items[0].Quantity)
	assertDec(t, "40000", cart.Items[0].TotalPrice)
	assertDec(t, "40000", cart.TotalAmount)
	assert.Equal(t, workers, cart.TotalItems)
}

func TestCartService_UpdateItemQuantity(t *testing.T) {
	env := newCartTestEnv()
	seedProduct(t, env.products, "prod-1", "1000")

	cart, err := env.svc.AddItem("user-1", "prod-1", 3)
	assert.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = env.svc.UpdateItemQuantity("user-1", itemID, 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assertDec(t, "5000", cart.Items[0].TotalPrice)
	assertDec(t, "5000", cart.TotalAmount)
	assert.Equal(t, 5, cart.TotalItems)

	_, err = env.svc.UpdateItemQuantity("user-1", itemID, 0)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)
}

func TestCartService_UpdateItemQuantity_AccessDenied(t *testing.T) {
	env := newCartTestEnv()
	seedProduct(t, env.products, "prod-1", "1000")

	cart, err := env.svc.AddItem("user-1", "prod-1", 1)
	assert.NoError(t, err)

	_, err = env.svc.UpdateItemQuantity("user-2", cart.Items[0].ID, 2)
	assert.ErrorIs(t, err, services.ErrAccessDenied)

	_, err = env.svc.RemoveItem("user-2", cart.Items[0].ID)
	assert.ErrorIs(t, err, services.ErrAccessDenied)
}

func TestCartService_RemoveItem(t *testing.T) {
	env := newCartTestEnv()
	seedProduct(t, env.products, "prod-1", "1000")
	seedProduct(t, env.products, "prod-2", "250")

	_, err := env.svc.AddItem("user-1", "prod-1", 1)
	assert.NoError(t, err)
	cart, err := env.svc.AddItem("user-1", "prod-2", 4)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assertDec(t, "2000", cart.TotalAmount)

	var removeID string
	for _, item := range cart.Items {
		if item.ProductID == "prod-2" {
			removeID = item.ID
		}
	}
	cart, err = env.svc.RemoveItem("user-1", removeID)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assertDec(t, "1000", cart.TotalAmount)
	assert.Equal(t, 1, cart.TotalItems)
}

func TestCartService_ClearCart(t *testing.T) {
	env := newCartTestEnv()
	seedProduct(t, env.products, "prod-1", "1000")

	_, err := env.svc.AddItem("user-1", "prod-1", 3)
	assert.NoError(t, err)

	cart, err := env.svc.ClearCart("user-1")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
	assertDec(t, "0", cart.TotalAmount)
	assert.Equal(t, 0, cart.TotalItems)
}

// Totals always equal the exact sums over the live items.
func TestCartService_TotalsInvariant(t *testing.T) {
	env := newCartTestEnv()
	seedProduct(t, env.products, "prod-1", "999.99")
	seedProduct(t, env.products, "prod-2", "0.05")

	_, err := env.svc.AddItem("user-1", "prod-1", 3)
	assert.NoError(t, err)
	cart, err := env.svc.AddItem("user-1", "prod-2", 7)
	assert.NoError(t, err)

	wantAmount := decimal.Zero
	wantItems := 0
	for _, item := range cart.Items {
		wantAmount = wantAmount.Add(item.TotalPrice)
		wantItems += item.Quantity
	}
	assert.True(t, cart.TotalAmount.Equal(wantAmount), "cart total %s != item sum %s", cart.TotalAmount, wantAmount)
	assert.Equal(t, wantItems, cart.TotalItems)
	assert.False(t, cart.LastActivityAt.IsZero())
	assert.WithinDuration(t, time.Now(), cart.LastActivityAt, time.Minute)
}

// --- duplicate-insert fallback path, driven through testify mocks ---

// MockCartRepo is a mock implementation of repositories.CartRepository used
// to script the insert race that the in-memory repository cannot produce on
// demand.
type MockCartRepo struct {
	mock.Mock
}

func (m *MockCartRepo) Create(cart *models.Cart) error {
	args := m.Called(cart)
	return args.Error(0)
}

func (m *MockCartRepo) GetByID(id string) (*models.Cart, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartRepo) GetActiveByUserID(userID string) (*models.Cart, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartRepo) UpdateStatus(cartID, fromStatus, toStatus string) error {
	args := m.Called(cartID, fromStatus, toStatus)
	return args.Error(0)
}

func (m *MockCartRepo) UpdateTotals(cartID string, totalAmount decimal.Decimal, totalItems int, lastActivityAt time.Time) error {
	args := m.Called(cartID, totalAmount, totalItems, lastActivityAt)
	return args.Error(0)
}

func (m *MockCartRepo) GetItems(cartID string) ([]models.CartItem, error) {
	args := m.Called(cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CartItem), args.Error(1)
}

func (m *MockCartRepo) GetItem(cartID, productID string) (*models.CartItem, error) {
	args := m.Called(cartID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *MockCartRepo) GetItemByID(itemID string) (*models.CartItem, error) {
	args := m.Called(itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *MockCartRepo) InsertItem(item *models.CartItem) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockCartRepo) IncrementItem(itemID string, quantity int, amount decimal.Decimal) error {
	args := m.Called(itemID, quantity, amount)
	return args.Error(0)
}

func (m *MockCartRepo) UpdateItemQuantity(itemID string, quantity int, totalPrice decimal.Decimal) error {
	args := m.Called(itemID, quantity, totalPrice)
	return args.Error(0)
}

func (m *MockCartRepo) DeleteItem(itemID string) error {
	args := m.Called(itemID)
	return args.Error(0)
}

func (m *MockCartRepo) DeleteItems(cartID string) error {
	args := m.Called(cartID)
	return args.Error(0)
}

// stubTxManager hands the same repositories to fn without rollback support.
type stubTxManager struct {
	repos repositories.TxRepos
}

func (s *stubTxManager) WithTransaction(fn func(tx repositories.TxRepos) error) error {
	return fn(s.repos)
}

func decEqual(want string) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString(want))
	})
}

func TestCartService_AddItem_DuplicateInsertFallsBackToIncrement(t *testing.T) {
	mockCarts := new(MockCartRepo)
	orders := repositories.NewMockOrderRepository()
	products := repositories.NewMockProductRepository()
	seedProduct(t, products, "prod-1", "1000")

	tx := &stubTxManager{repos: repositories.TxRepos{Carts: mockCarts, Orders: orders}}
	svc := services.NewCartService(tx, mockCarts, products)

	cart := &models.Cart{ID: "cart-1", UserID: "user-1", Status: models.CartStatusActive}
	existing := &models.CartItem{
		ID: "item-1", CartID: "cart-1", ProductID: "prod-1",
		Quantity: 1, UnitPrice: decimal.RequireFromString("1000"), TotalPrice: decimal.RequireFromString("1000"),
	}

	mockCarts.On("GetActiveByUserID", "user-1").Return(cart, nil).Once()
	// First lookup sees no row, the insert loses the race, the re-fetch finds
	// the winner's row and the add degrades to an atomic increment.
	mockCarts.On("GetItem", "cart-1", "prod-1").Return(nil, notFoundErr("item")).Once()
	mockCarts.On("InsertItem", mock.AnythingOfType("*models.CartItem")).
		Return(repositories.ErrDuplicateKey).Once()
	mockCarts.On("GetItem", "cart-1", "prod-1").Return(existing, nil).Once()
	mockCarts.On("IncrementItem", "item-1", 1, decEqual("1000")).Return(nil).Once()
	mockCarts.On("GetItems", "cart-1").
		Return([]models.CartItem{{ID: "item-1", Quantity: 2, TotalPrice: decimal.RequireFromString("2000")}}, nil).Once()
	mockCarts.On("UpdateTotals", "cart-1", decEqual("2000"), 2, mock.AnythingOfType("time.Time")).Return(nil).Once()
	mockCarts.On("GetByID", "cart-1").Return(cart, nil).Once()

	_, err := svc.AddItem("user-1", "prod-1", 1)
	assert.NoError(t, err)
	mockCarts.AssertExpectations(t)
}

func TestCartService_AddItem_DuplicateInsertPathologicalRace(t *testing.T) {
	mockCarts := new(MockCartRepo)
	orders := repositories.NewMockOrderRepository()
	products := repositories.NewMockProductRepository()
	seedProduct(t, products, "prod-1", "1000")

	tx := &stubTxManager{repos: repositories.TxRepos{Carts: mockCarts, Orders: orders}}
	svc := services.NewCartService(tx, mockCarts, products)

	cart := &models.Cart{ID: "cart-1", UserID: "user-1", Status: models.CartStatusActive}

	mockCarts.On("GetActiveByUserID", "user-1").Return(cart, nil).Once()
	mockCarts.On("GetItem", "cart-1", "prod-1").Return(nil, notFoundErr("item")).Twice()
	mockCarts.On("InsertItem", mock.AnythingOfType("*models.CartItem")).
		Return(repositories.ErrDuplicateKey).Once()

	// The row vanished again after the conflict: the original duplicate-key
	// error propagates instead of the service retrying forever.
	_, err := svc.AddItem("user-1", "prod-1", 1)
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
	mockCarts.AssertExpectations(t)
}
