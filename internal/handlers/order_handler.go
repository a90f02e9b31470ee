package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"shoten/internal/middleware"
	"shoten/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app. The
// number-lookup route is registered before the ID route so it wins matching.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/number/:orderNumber", h.HandleGetOrderByNumber)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id", middleware.AdminRequired(), h.HandleUpdateOrder)
	orderRoutes.Patch("/:id/cancel", h.HandleCancelOrder)
}

// HandleCreateOrder converts the user's active cart into an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.CreateOrder(userID, req)
	if err != nil {
		log.Printf("Error creating order for user %s: %v", userID, err)
		return errorResponse(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrders returns the caller's orders; admins see all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var err error
	orders, err := h.ordersFor(c, userID)
	if err != nil {
		log.Printf("Error getting orders for user %s: %v", userID, err)
		return errorResponse(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) ordersFor(c *fiber.Ctx, userID string) (interface{}, error) {
	if isAdmin(c) {
		return h.service.GetAllOrders()
	}
	return h.service.GetOrdersForUser(userID)
}

// HandleGetOrderByID returns a single order. The caller must own it or be admin.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}
	orderID := c.Params("id")

	order, err := h.service.GetOrder(orderID, userID, isAdmin(c))
	if err != nil {
		log.Printf("Error getting order %s: %v", orderID, err)
		return errorResponse(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleGetOrderByNumber returns a single order looked up by order number.
func (h *OrderHandler) HandleGetOrderByNumber(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}
	orderNumber := c.Params("orderNumber")

	order, err := h.service.GetOrderByNumber(orderNumber, userID, isAdmin(c))
	if err != nil {
		log.Printf("Error getting order %s: %v", orderNumber, err)
		return errorResponse(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleUpdateOrder applies an admin-side status/payment/tracking update.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var req services.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateOrder(orderID, req)
	if err != nil {
		log.Printf("Error updating order %s: %v", orderID, err)
		return errorResponse(c, "Could not update order", err)
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels an order on behalf of its owner or an admin.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}
	orderID := c.Params("id")

	order, err := h.service.CancelOrder(orderID, userID, isAdmin(c))
	if err != nil {
		log.Printf("Error cancelling order %s: %v", orderID, err)
		return errorResponse(c, "Could not cancel order", err)
	}
	return c.JSON(order)
}
