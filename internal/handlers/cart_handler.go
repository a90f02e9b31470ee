package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shoten/internal/services"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:id", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
}

// addItemRequest is the body of POST /cart/items.
type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// updateItemRequest is the body of PUT /cart/items/:id.
type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// HandleGetCart returns the user's active cart, creating an empty one if
// none exists.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	cart, err := h.service.GetCart(userID)
	if err != nil {
		log.Printf("Error getting cart for user %s: %v", userID, err)
		return errorResponse(c, "Could not retrieve cart", err)
	}
	return c.JSON(cart)
}

// HandleAddItem adds a product to the cart or increments the existing line.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	cart, err := h.service.AddItem(userID, req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding item to cart for user %s: %v", userID, err)
		return errorResponse(c, "Could not add item to cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

// HandleUpdateItem overwrites a cart line's quantity.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}
	itemID := c.Params("id")

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	cart, err := h.service.UpdateItemQuantity(userID, itemID, req.Quantity)
	if err != nil {
		log.Printf("Error updating cart item %s for user %s: %v", itemID, userID, err)
		return errorResponse(c, "Could not update cart item", err)
	}
	return c.JSON(cart)
}

// HandleRemoveItem deletes a cart line.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}
	itemID := c.Params("id")

	cart, err := h.service.RemoveItem(userID, itemID)
	if err != nil {
		log.Printf("Error removing cart item %s for user %s: %v", itemID, userID, err)
		return errorResponse(c, "Could not remove cart item", err)
	}
	return c.JSON(cart)
}

// HandleClearCart removes every line from the user's active cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
	}

	cart, err := h.service.ClearCart(userID)
	if err != nil {
		log.Printf("Error clearing cart for user %s: %v", userID, err)
		return errorResponse(c, "Could not clear cart", err)
	}
	return c.JSON(cart)
}
