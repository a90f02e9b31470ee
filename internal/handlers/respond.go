package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shoten/internal/models"
	"shoten/internal/repositories"
	"shoten/internal/services"
)

// statusForError maps domain errors to HTTP statuses. User input errors are
// 400, access errors 403, missing records 404; an exhausted order number
// retry surfaces as a conflict the client may retry wholesale.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrAccessDenied):
		return fiber.StatusForbidden
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrOrderNumberGeneration),
		errors.Is(err, services.ErrCheckoutConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrProductUnavailable),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidOrderAmount),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrInconsistentPaymentStatus):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// errorResponse writes a JSON error body with the mapped status.
func errorResponse(c *fiber.Ctx, message string, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// currentUserID extracts the authenticated user ID set by the JWT middleware.
func currentUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	return userID, ok && userID != ""
}

// isAdmin reports whether the authenticated user holds the admin role.
func isAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("role").(string)
	return role == models.RoleAdmin
}
