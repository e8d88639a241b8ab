package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/product"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyLines is returned when an order is placed with no lines.
	ErrEmptyLines = errors.New("order must contain at least one line")
)

// CreateOrderRequest holds the already-validated input for placing an order.
type CreateOrderRequest struct {
	CustomerName  string
	CustomerEmail string
	Lines         []LineRequest
}

// Service orchestrates order placement: pricing against current stock,
// followed by atomic persistence and stock decrement.
type Service struct {
	products product.Repository
	orders   Repository
	pricing  PricingConfig
}

// NewService creates an order Service with the required dependencies.
func NewService(products product.Repository, orders Repository, pricing PricingConfig) *Service {
	return &Service{
		products: products,
		orders:   orders,
		pricing:  pricing,
	}
}

// Create prices the requested lines against current stock and persists the
// order. Any pricing failure aborts before anything is written; persistence
// failures roll back entirely, so a returned error always means zero
// observable side effects. Nothing is retried.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}

	// The pricing engine resolves products one at a time, in request order,
	// directly against the catalog store. The first missing product or
	// stock shortfall short-circuits the whole order.
	priced, err := Price(s.pricing, req.Lines, func(id string) (product.Product, error) {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			return product.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:            uuid.New().String(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Lines:         priced.Lines,
		Subtotal:      priced.Subtotal,
		ShippingFee:   priced.ShippingFee,
		TotalAmount:   priced.TotalAmount,
	}

	// Create re-validates availability inside the transaction; a concurrent
	// order that consumed the stock since the snapshot surfaces here as the
	// same typed error, with nothing persisted.
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

// Get returns a single order by id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List returns orders in creation order.
func (s *Service) List(ctx context.Context, skip, limit int) ([]Order, error) {
	return s.orders.List(ctx, skip, limit)
}
