package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicate is returned when creating a product violates a
	// uniqueness constraint.
	ErrDuplicate = errors.New("product already exists")
)

// InvalidAdjustmentError indicates an inventory adjustment that would drive
// stock below zero. Stock is left unchanged when this error is returned.
type InvalidAdjustmentError struct {
	Current int
	Delta   int
}

func (e *InvalidAdjustmentError) Error() string {
	return fmt.Sprintf("cannot reduce inventory below zero: current %d, requested change %d", e.Current, e.Delta)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	// List returns products in creation order, offset by skip and capped
	// at limit.
	List(ctx context.Context, skip, limit int) ([]Product, error)
	// GetByID returns a single product or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Product, error)
	// Create persists a new product. Returns ErrDuplicate when a product
	// with the same name already exists.
	Create(ctx context.Context, p *Product) error
	// AdjustStock applies delta (positive or negative) to the product's
	// stock and returns the updated product. Returns ErrNotFound when the
	// product is absent and *InvalidAdjustmentError when the adjustment
	// would make stock negative; in both cases nothing is written.
	AdjustStock(ctx context.Context, id string, delta int) (*Product, error)
}
