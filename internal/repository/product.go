package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, description, price, stock
		FROM products ORDER BY seq OFFSET $1 LIMIT $2`

	getProductByIDSQL = `SELECT id, name, description, price, stock
		FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (id, name, description, price, stock)
		VALUES ($1, $2, $3, $4, $5)`

	lockProductStockSQL = `SELECT stock FROM products WHERE id = $1 FOR UPDATE`

	setProductStockSQL = `UPDATE products SET stock = $2 WHERE id = $1
		RETURNING id, name, description, price, stock`
)

// uniqueViolation is the SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns products in creation order, offset by skip, capped at limit.
func (r *ProductRepository) List(ctx context.Context, skip, limit int) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create persists a new product. A unique-constraint violation on the name
// maps to product.ErrDuplicate.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Stock,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return product.ErrDuplicate
		}
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// AdjustStock applies delta to the product's stock inside a transaction.
// The row is locked before validation so a concurrent adjustment cannot
// slip between the check and the write.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*product.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("beginning stock adjustment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current int
	if err := tx.QueryRow(ctx, lockProductStockSQL, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("locking product %q: %w", id, err)
	}

	next := current + delta
	if next < 0 {
		return nil, &product.InvalidAdjustmentError{Current: current, Delta: delta}
	}

	rows, err := tx.Query(ctx, setProductStockSQL, id, next)
	if err != nil {
		return nil, fmt.Errorf("updating stock for product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("updating stock for product %q: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing stock adjustment for %q: %w", id, err)
	}
	return &p, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock)
	return p, err
}
