package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a completed customer order with its priced lines.
// Orders are immutable after creation.
type Order struct {
	ID            string
	CustomerName  string
	CustomerEmail string
	Lines         []Line
	Subtotal      decimal.Decimal
	ShippingFee   decimal.Decimal
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time
}

// Line is a single priced line item. UnitPrice is the price charged at order
// time, frozen thereafter; later catalog price changes never affect it.
type Line struct {
	ProductID       string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountApplied bool
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order, its lines, and the stock decrement for
	// every referenced product as a single atomic unit. On any failure
	// nothing is written. The order's CreatedAt is populated from the
	// database on success.
	Create(ctx context.Context, o *Order) error
	// List returns orders in creation order, offset by skip and capped
	// at limit, each with its lines in request order.
	List(ctx context.Context, skip, limit int) ([]Order, error)
	// GetByID returns a single order with its lines, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)
}
