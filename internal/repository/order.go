package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/order"
)

const (
	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	productStockInfoSQL = `SELECT name, stock FROM products WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders (id, customer_name, customer_email, subtotal, shipping_fee, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	insertOrderLineSQL = `INSERT INTO order_lines (order_id, line_no, product_id, quantity, unit_price, discount_applied)
		VALUES ($1, $2, $3, $4, $5, $6)`

	listOrdersSQL = `SELECT id, customer_name, customer_email, subtotal, shipping_fee, total_amount, created_at
		FROM orders ORDER BY seq OFFSET $1 LIMIT $2`

	getOrderByIDSQL = `SELECT id, customer_name, customer_email, subtotal, shipping_fee, total_amount, created_at
		FROM orders WHERE id = $1`

	getOrderLinesSQL = `SELECT order_id, product_id, quantity, unit_price, discount_applied
		FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, line_no`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, its lines, and every stock decrement in one
// transaction. Each decrement is conditional on sufficient stock, so an
// availability check that went stale since pricing fails the whole
// transaction here rather than driving stock negative. On any error nothing
// is committed.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, ln := range o.Lines {
		tag, err := tx.Exec(ctx, decrementStockSQL, ln.ProductID, ln.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for product %q: %w", ln.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return r.stockFailure(ctx, tx, ln)
		}
	}

	if err := tx.QueryRow(ctx, insertOrderSQL,
		o.ID, o.CustomerName, o.CustomerEmail, o.Subtotal, o.ShippingFee, o.TotalAmount,
	).Scan(&o.CreatedAt); err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for i, ln := range o.Lines {
		if _, err := tx.Exec(ctx, insertOrderLineSQL,
			o.ID, i, ln.ProductID, ln.Quantity, ln.UnitPrice, ln.DiscountApplied,
		); err != nil {
			return fmt.Errorf("creating line %d of order %q: %w", i, o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// stockFailure resolves a zero-row decrement into the precise typed error:
// the product either vanished or no longer has enough stock.
func (r *OrderRepository) stockFailure(ctx context.Context, tx pgx.Tx, ln order.Line) error {
	var (
		name  string
		stock int
	)
	err := tx.QueryRow(ctx, productStockInfoSQL, ln.ProductID).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return &order.ProductNotFoundError{ProductID: ln.ProductID}
	}
	if err != nil {
		return fmt.Errorf("inspecting product %q after failed decrement: %w", ln.ProductID, err)
	}
	return &order.InsufficientStockError{
		ProductID: ln.ProductID,
		Name:      name,
		Requested: ln.Quantity,
		Available: stock,
	}
}

// List returns orders in creation order with their lines attached.
func (r *OrderRepository) List(ctx context.Context, skip, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	if err := r.attachLines(ctx, ids, byID); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByID returns a single order with its lines, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if err := r.attachLines(ctx, []string{o.ID}, map[string]*order.Order{o.ID: &o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// attachLines loads the lines for the given order ids, in line order, and
// appends them to their parent orders.
func (r *OrderRepository) attachLines(ctx context.Context, ids []string, byID map[string]*order.Order) error {
	rows, err := r.pool.Query(ctx, getOrderLinesSQL, ids)
	if err != nil {
		return fmt.Errorf("loading order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			ln      order.Line
		)
		if err := rows.Scan(&orderID, &ln.ProductID, &ln.Quantity, &ln.UnitPrice, &ln.DiscountApplied); err != nil {
			return fmt.Errorf("scanning order line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, ln)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loading order lines: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerEmail,
		&o.Subtotal, &o.ShippingFee, &o.TotalAmount, &o.CreatedAt)
	return o, err
}
