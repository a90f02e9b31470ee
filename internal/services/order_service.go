package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"shoten/internal/models"
	"shoten/internal/pricing"
	"shoten/internal/repositories"
)

// domesticCountry is the home market; its postal codes must match the
// NNN-NNNN format.
const domesticCountry = "Japan"

var domesticPostalCode = regexp.MustCompile(`^\d{3}-\d{4}$`)

// EventPublisher publishes order lifecycle events to the message broker.
// A nil publisher disables events (used in tests).
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// CreateOrderRequest carries the checkout input.
type CreateOrderRequest struct {
	ShippingAddress models.Address  `json:"shipping_address"`
	BillingAddress  *models.Address `json:"billing_address,omitempty"`
	PaymentMethod   string          `json:"payment_method" validate:"omitempty,max=32"`
	Notes           string          `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateOrderRequest carries an admin-side order update. Only lifecycle
// fields can be changed; monetary fields and items are immutable.
type UpdateOrderRequest struct {
	Status         string `json:"status" validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	PaymentStatus  string `json:"payment_status" validate:"omitempty,oneof=pending paid failed refunded"`
	TrackingNumber string `json:"tracking_number" validate:"omitempty,max=64"`
}

// OrderService handles business logic related to orders: the checkout
// transaction, retrieval with ownership checks, and the status lifecycle.
type OrderService struct {
	txManager   repositories.TxManager
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
	validate    *validator.Validate
}

// NewOrderService creates a new OrderService.
func NewOrderService(txManager repositories.TxManager, orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, events EventPublisher) *OrderService {
	return &OrderService{
		txManager:   txManager,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		events:      events,
		validate:    validator.New(),
	}
}

// CreateOrder converts the user's active cart into an immutable order inside
// one atomic unit of work: load and validate the cart, generate the order
// number, compute the monetary breakdown, persist the order with frozen item
// snapshots, and flip the cart to converted. Any failure rolls the whole
// transaction back, leaving the cart active and untouched.
func (s *OrderService) CreateOrder(userID string, req CreateOrderRequest) (*models.Order, error) {
	if err := s.validateShippingAddress(req.ShippingAddress); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.txManager.WithTransaction(func(tx repositories.TxRepos) error {
		cart, err := tx.Carts.GetActiveByUserID(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: no active cart for user %s", ErrEmptyCart, userID)
			}
			return err
		}
		if len(cart.Items) == 0 {
			return fmt.Errorf("%w: cart %s has no items", ErrEmptyCart, cart.ID)
		}

		now := time.Now()
		orderNumber, err := generateOrderNumber(tx.Orders, now)
		if err != nil {
			return err
		}

		subtotal := cart.TotalAmount
		if !subtotal.IsPositive() {
			return fmt.Errorf("%w: subtotal %s", ErrInvalidOrderAmount, subtotal)
		}
		taxAmount := pricing.Tax(subtotal)
		shippingAmount := pricing.ShippingFee(subtotal)
		totalAmount := pricing.OrderTotal(subtotal, taxAmount, shippingAmount)

		billingAddress := req.ShippingAddress
		if req.BillingAddress != nil {
			billingAddress = *req.BillingAddress
		}

		items, err := s.buildOrderItems(cart.Items)
		if err != nil {
			return err
		}

		order = &models.Order{
			OrderNumber:           orderNumber,
			UserID:                userID,
			Status:                models.OrderStatusPending,
			PaymentStatus:         models.PaymentStatusPending,
			Subtotal:              subtotal,
			TaxAmount:             taxAmount,
			ShippingAmount:        shippingAmount,
			DiscountAmount:        decimal.Zero,
			TotalAmount:           totalAmount,
			OrderDate:             now,
			EstimatedDeliveryDate: now.AddDate(0, 0, 7),
			ShippingAddress:       req.ShippingAddress,
			BillingAddress:        billingAddress,
			PaymentMethod:         req.PaymentMethod,
			Notes:                 req.Notes,
			Items:                 items,
		}
		if err := tx.Orders.Create(order); err != nil {
			return err
		}

		// The cart is consumed: items go, the status flips to its terminal
		// converted state, totals drop to zero. A concurrent checkout of the
		// same cart loses the conditional status update and aborts here.
		if err := tx.Carts.DeleteItems(cart.ID); err != nil {
			return err
		}
		if err := tx.Carts.UpdateStatus(cart.ID, models.CartStatusActive, models.CartStatusConverted); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: cart %s was converted concurrently", ErrCheckoutConflict, cart.ID)
			}
			return err
		}
		return tx.Carts.UpdateTotals(cart.ID, decimal.Zero, 0, now)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent("order.created", order)
	return order, nil
}

// buildOrderItems freezes the cart lines into order items. Every line must
// still resolve to a product (removed ones included); a dangling reference
// aborts the whole checkout rather than silently dropping the line.
func (s *OrderService) buildOrderItems(cartItems []models.CartItem) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(cartItems))
	for _, ci := range cartItems {
		product, err := s.productRepo.GetByIDIncludingRemoved(ci.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s", ErrOrderItemProductMissing, ci.ProductID)
			}
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductID:    ci.ProductID,
			Quantity:     ci.Quantity,
			UnitPrice:    ci.UnitPrice,
			TotalPrice:   ci.TotalPrice,
			ProductName:  product.Name,
			ProductSKU:   product.SKU,
			ProductBrand: product.Brand,
			ProductModel: product.ModelName,
			ProductImage: product.ImageURL,
			ProductSpecs: product.Specifications,
		})
	}
	return items, nil
}

// validateShippingAddress checks the required fields and the domestic
// postal code format.
func (s *OrderService) validateShippingAddress(addr models.Address) error {
	if err := s.validate.Struct(addr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if addr.Country == domesticCountry && !domesticPostalCode.MatchString(addr.PostalCode) {
		return fmt.Errorf("%w: postal code %q does not match the domestic format", ErrInvalidAddress, addr.PostalCode)
	}
	return nil
}

// GetOrdersForUser retrieves all orders of a user.
func (s *OrderService) GetOrdersForUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(userID)
}

// GetAllOrders retrieves all orders (admin use).
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrder retrieves an order by ID. The caller must own it or be admin.
func (s *OrderService) GetOrder(orderID, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s", ErrAccessDenied, orderID)
	}
	return order, nil
}

// GetOrderByNumber retrieves an order by its order number, with the same
// ownership check as GetOrder.
func (s *OrderService) GetOrderByNumber(orderNumber, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s", ErrAccessDenied, orderNumber)
	}
	return order, nil
}

// UpdateOrder applies an admin-side lifecycle update: payment status first,
// then tracking, then the status transition, so paying and delivering an
// order can arrive in one request.
func (s *OrderService) UpdateOrder(orderID string, req UpdateOrderRequest) (*models.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatusTransition, err)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if req.PaymentStatus != "" {
		order.PaymentStatus = req.PaymentStatus
	}
	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.Status != "" && req.Status != order.Status {
		if err := applyStatusTransition(order, req.Status); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publishEvent("order.status_changed", order)
	return order, nil
}

// CancelOrder is the cancellation wrapper: it rejects orders that are
// already delivered or cancelled and otherwise forces the status to
// cancelled. The caller must own the order or be admin.
func (s *OrderService) CancelOrder(orderID, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.GetOrder(orderID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusDelivered || order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order %s is already %s", ErrInvalidStatusTransition, orderID, order.Status)
	}
	order.Status = models.OrderStatusCancelled

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publishEvent("order.status_changed", order)
	return order, nil
}

// applyStatusTransition enforces the lifecycle table plus the per-state
// rules: shipped accepts a tracking number, delivered requires payment and
// stamps the delivery time, refunded requires a refunded payment.
func applyStatusTransition(order *models.Order, newStatus string) error {
	if !models.ValidOrderStatus(newStatus) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, newStatus)
	}
	if !models.CanTransitionOrderStatus(order.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, newStatus)
	}

	switch newStatus {
	case models.OrderStatusDelivered:
		if order.PaymentStatus != models.PaymentStatusPaid {
			return fmt.Errorf("%w: delivery requires payment status %q, have %q",
				ErrInconsistentPaymentStatus, models.PaymentStatusPaid, order.PaymentStatus)
		}
		if order.DeliveredAt == nil {
			now := time.Now()
			order.DeliveredAt = &now
		}
	case models.OrderStatusRefunded:
		if order.PaymentStatus != models.PaymentStatusRefunded {
			return fmt.Errorf("%w: refund requires payment status %q, have %q",
				ErrInconsistentPaymentStatus, models.PaymentStatusRefunded, order.PaymentStatus)
		}
	}

	order.Status = newStatus
	return nil
}

// publishEvent sends an order event to the broker, best effort. A failed
// publish never fails the business operation.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.events == nil || order == nil {
		return
	}
	payload := map[string]interface{}{
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"user_id":        order.UserID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"total_amount":   order.TotalAmount,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}
