package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"shoten/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// snapshot copies the store state so a mock transaction can roll back.
func (r *MockOrderRepository) snapshot() map[string]models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := make(map[string]models.Order, len(r.orders))
	for k, v := range r.orders {
		v.Items = append([]models.OrderItem(nil), v.Items...)
		s[k] = v
	}
	return s
}

func (r *MockOrderRepository) restore(s map[string]models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = s
}

// Create adds a new order with its items, enforcing order number uniqueness.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orders {
		if existing.OrderNumber == order.OrderNumber {
			return fmt.Errorf("%w: order number %s", ErrDuplicateKey, order.OrderNumber)
		}
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders[order.ID] = stored
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	order.Items = append([]models.OrderItem(nil), order.Items...)
	return &order, nil
}

// GetByNumber returns an order by its order number.
func (r *MockOrderRepository) GetByNumber(orderNumber string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			order.Items = append([]models.OrderItem(nil), order.Items...)
			return &order, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
}

// GetByUserID returns all orders of a user, newest first.
func (r *MockOrderRepository) GetByUserID(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

// CountByOrderDate counts orders with order_date in [start, end).
func (r *MockOrderRepository) CountByOrderDate(start, end time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, order := range r.orders {
		if !order.OrderDate.Before(start) && order.OrderDate.Before(end) {
			count++
		}
	}
	return count, nil
}

// ExistsByNumber reports whether an order with the given number exists.
func (r *MockOrderRepository) ExistsByNumber(orderNumber string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

// Update overwrites the mutable lifecycle fields of an order.
func (r *MockOrderRepository) Update(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("%w: order %s", ErrNotFound, order.ID)
	}
	stored.Status = order.Status
	stored.PaymentStatus = order.PaymentStatus
	stored.TrackingNumber = order.TrackingNumber
	stored.DeliveredAt = order.DeliveredAt
	r.orders[order.ID] = stored
	return nil
}
