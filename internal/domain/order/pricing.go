package order

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// PricingConfig holds the discount and shipping rules, loaded once at process
// start and immutable for the process lifetime.
type PricingConfig struct {
	// BulkDiscountThreshold is the minimum line quantity that triggers the
	// bulk discount.
	BulkDiscountThreshold int
	// BulkDiscountPercent is the discount percentage applied to the unit
	// price of qualifying lines.
	BulkDiscountPercent int
	// FreeShippingThreshold is the subtotal at or above which the shipping
	// fee is waived.
	FreeShippingThreshold decimal.Decimal
	// ShippingFee is the flat fee charged below the free-shipping threshold.
	ShippingFee decimal.Decimal
}

// DefaultPricingConfig matches the documented defaults: discount of 10% at
// quantity 5, $5.00 shipping waived at $50.00.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		BulkDiscountThreshold: 5,
		BulkDiscountPercent:   10,
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.NewFromInt(5),
	}
}

// LineRequest is one requested (product, quantity) pair.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// PricedOrder is the result of pricing a set of requested lines against a
// catalog snapshot. Monetary values carry full precision; nothing is rounded.
type PricedOrder struct {
	Lines       []Line
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	TotalAmount decimal.Decimal
}

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %s not found", e.ProductID)
}

// InsufficientStockError indicates a line requested more units than the
// product has in stock.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough inventory for product %s: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

// Lookup resolves a product id to its current catalog price and stock.
// Implementations must not mutate anything; the pricing computation itself
// has no side effects.
type Lookup func(productID string) (product.Product, error)

// Price computes pricing for the requested lines against the stock levels
// reported by lookup.
//
// Lines are processed strictly in input order, each one resolved and checked
// before the next is examined. The first missing product or stock shortfall
// aborts the whole computation — there are no partial results. Discount
// eligibility is evaluated per line against that line's own quantity;
// quantities of other lines, even for the same product, are not aggregated.
func Price(cfg PricingConfig, lines []LineRequest, lookup Lookup) (*PricedOrder, error) {
	priced := make([]Line, 0, len(lines))
	subtotal := decimal.Zero

	for _, ln := range lines {
		p, err := lookup(ln.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: ln.ProductID}
			}
			return nil, errors.Wrapf(err, "look up product %s", ln.ProductID)
		}
		if p.Stock < ln.Quantity {
			return nil, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: ln.Quantity,
				Available: p.Stock,
			}
		}

		unitPrice := p.Price
		discounted := false
		if ln.Quantity >= cfg.BulkDiscountThreshold {
			pct := decimal.NewFromInt(int64(cfg.BulkDiscountPercent))
			unitPrice = unitPrice.Mul(hundred.Sub(pct)).Div(hundred)
			discounted = true
		}

		priced = append(priced, Line{
			ProductID:       ln.ProductID,
			Quantity:        ln.Quantity,
			UnitPrice:       unitPrice,
			DiscountApplied: discounted,
		})
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}

	shipping := decimal.Zero
	if subtotal.LessThan(cfg.FreeShippingThreshold) {
		shipping = cfg.ShippingFee
	}

	return &PricedOrder{
		Lines:       priced,
		Subtotal:    subtotal,
		ShippingFee: shipping,
		TotalAmount: subtotal.Add(shipping),
	}, nil
}
