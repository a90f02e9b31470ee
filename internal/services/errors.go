package services

import "errors"

// Domain errors surfaced to callers. Handlers map these to HTTP statuses
// with errors.Is; they are never retried automatically. Transient
// persistence conflicts (duplicate inserts, order number collisions) are
// recovered internally and only show up here once their retry bound is
// exhausted.
var (
	// ErrProductUnavailable means the product does not exist or is not active.
	ErrProductUnavailable = errors.New("product unavailable")

	// ErrInvalidQuantity means a quantity below 1 was requested.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrEmptyCart means checkout was attempted with no active cart or no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidAddress means the shipping address failed validation.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidOrderAmount means the cart subtotal was not positive.
	ErrInvalidOrderAmount = errors.New("invalid order amount")

	// ErrInvalidStatusTransition means the requested order status change is
	// not an edge of the lifecycle table.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrInconsistentPaymentStatus means the order status change conflicts
	// with the order's payment status.
	ErrInconsistentPaymentStatus = errors.New("inconsistent payment status")

	// ErrAccessDenied means the acting user does not own the resource and
	// holds no elevated role.
	ErrAccessDenied = errors.New("access denied")

	// ErrOrderNumberGeneration means the bounded retry of the order number
	// generator was exhausted; the whole checkout may be retried.
	ErrOrderNumberGeneration = errors.New("order number generation failed")

	// ErrCheckoutConflict means the cart was converted by a concurrent
	// checkout while this one ran; the whole checkout may be retried.
	ErrCheckoutConflict = errors.New("checkout conflict")

	// ErrOrderItemProductMissing means a cart line no longer resolves to any
	// product; the whole checkout transaction is aborted.
	ErrOrderItemProductMissing = errors.New("order item product missing")

	// ErrInvalidCredentials is returned on failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists is returned when registering a taken username or email.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidToken is returned for an unparsable or expired JWT.
	ErrInvalidToken = errors.New("invalid token")
)
