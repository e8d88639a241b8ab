package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/order"
	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/product"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock implementations ---

type mockProductRepo struct {
	byID      map[string]*product.Product
	listed    []product.Product
	lastSkip  int
	lastLimit int
	createErr error
	listErr   error
}

func (m *mockProductRepo) List(_ context.Context, skip, limit int) ([]product.Product, error) {
	m.lastSkip, m.lastLimit = skip, limit
	return m.listed, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.byID == nil {
		m.byID = make(map[string]*product.Product)
	}
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) AdjustStock(_ context.Context, id string, delta int) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	next := p.Stock + delta
	if next < 0 {
		return nil, &product.InvalidAdjustmentError{Current: p.Stock, Delta: delta}
	}
	updated := *p
	updated.Stock = next
	return &updated, nil
}

type mockOrderRepo struct {
	byID      map[string]*order.Order
	listed    []order.Order
	createErr error
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	o.CreatedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if m.byID == nil {
		m.byID = make(map[string]*order.Order)
	}
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) List(_ context.Context, _, _ int) ([]order.Order, error) {
	return m.listed, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

// --- Helpers ---

func newTestRouter(products *mockProductRepo, orders *mockOrderRepo) *gin.Engine {
	svc := order.NewService(products, orders, order.DefaultPricingConfig())
	return NewHandler(products, svc).Router()
}

func catalogEntry(id, name, price string, stock int) *product.Product {
	return &product.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func errorDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody[map[string]string](t, w)
	return body["detail"]
}

// --- Product tests ---

func TestListProducts(t *testing.T) {
	products := &mockProductRepo{
		listed: []product.Product{
			*catalogEntry("p1", "Widget", "10.00", 100),
			*catalogEntry("p2", "Gadget", "20.50", 5),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodGet, "/products/get_all_products", nil)

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[[]ProductResponse](t, w)
	require.Len(t, out, 2)
	assert.Equal(t, "Widget", out[0].Name)
	assert.Equal(t, 10.0, out[0].Price)
	assert.Equal(t, 100, out[0].Inventory)
	assert.Equal(t, 20.5, out[1].Price)
}

func TestListProducts_PaginationClamping(t *testing.T) {
	products := &mockProductRepo{}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodGet, "/products/get_all_products?skip=-3&limit=5000", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, products.lastSkip)
	assert.Equal(t, maxLimit, products.lastLimit)
}

func TestListProducts_DefaultLimit(t *testing.T) {
	products := &mockProductRepo{}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodGet, "/products/get_all_products", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultLimit, products.lastLimit)
}

func TestGetProduct(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 100),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodGet, "/products/get_product/p1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[ProductResponse](t, w)
	assert.Equal(t, "p1", out.ID)
	assert.Equal(t, "Widget", out.Name)
}

func TestGetProduct_NotFound(t *testing.T) {
	router := newTestRouter(&mockProductRepo{}, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodGet, "/products/get_product/nope", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", errorDetail(t, w))
}

func TestCreateProduct(t *testing.T) {
	products := &mockProductRepo{}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPost, "/products/add_product", gin.H{
		"name":        "Widget",
		"description": "A fine widget",
		"price":       12.5,
		"inventory":   30,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	out := decodeBody[ProductResponse](t, w)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Widget", out.Name)
	assert.Equal(t, 12.5, out.Price)
	assert.Equal(t, 30, out.Inventory)
}

func TestCreateProduct_Duplicate(t *testing.T) {
	products := &mockProductRepo{createErr: product.ErrDuplicate}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPost, "/products/add_product", gin.H{
		"name":      "Widget",
		"price":     12.5,
		"inventory": 30,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Product already exists", errorDetail(t, w))
}

func TestCreateProduct_NonPositivePrice(t *testing.T) {
	router := newTestRouter(&mockProductRepo{}, &mockOrderRepo{})

	for _, price := range []float64{0, -3} {
		w := doJSON(t, router, http.MethodPost, "/products/add_product", gin.H{
			"name":      "Widget",
			"price":     price,
			"inventory": 30,
		})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "price must be greater than 0", errorDetail(t, w))
	}
}

func TestCreateProduct_MissingName(t *testing.T) {
	router := newTestRouter(&mockProductRepo{}, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPost, "/products/add_product", gin.H{
		"price":     12.5,
		"inventory": 30,
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateProductInventory(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 10),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPatch, "/products/update_product_inventory/p1", gin.H{
		"quantity": -4,
	})

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[ProductResponse](t, w)
	assert.Equal(t, 6, out.Inventory)
}

func TestUpdateProductInventory_BelowZero(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 3),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPatch, "/products/update_product_inventory/p1", gin.H{
		"quantity": -5,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t,
		"Cannot reduce inventory below zero. Current inventory: 3, Requested change: -5",
		errorDetail(t, w))
}

func TestUpdateProductInventory_MissingQuantity(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 10),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	// An omitted quantity must be rejected, not treated as a zero delta.
	w := doJSON(t, router, http.MethodPatch, "/products/update_product_inventory/p1", gin.H{})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 10, products.byID["p1"].Stock)
}

func TestUpdateProductInventory_ZeroDelta(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 10),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPatch, "/products/update_product_inventory/p1", gin.H{
		"quantity": 0,
	})

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[ProductResponse](t, w)
	assert.Equal(t, 10, out.Inventory)
}

func TestUpdateProductInventory_NotFound(t *testing.T) {
	router := newTestRouter(&mockProductRepo{}, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPatch, "/products/update_product_inventory/nope", gin.H{
		"quantity": 1,
	})

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", errorDetail(t, w))
}

// --- Order tests ---

func orderPayload(items ...gin.H) gin.H {
	return gin.H{
		"customer_name":  "Ada Lovelace",
		"customer_email": "ada@example.com",
		"items":          items,
	}
}

func TestCreateOrder(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 100),
			"p2": catalogEntry("p2", "Gadget", "20.00", 100),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPost, "/orders/add_order", orderPayload(
		gin.H{"product_id": "p1", "quantity": 6},
		gin.H{"product_id": "p2", "quantity": 1},
	))

	require.Equal(t, http.StatusCreated, w.Code)
	out := decodeBody[OrderResponse](t, w)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Ada Lovelace", out.CustomerName)
	require.Len(t, out.Items, 2)
	assert.Equal(t, 9.0, out.Items[0].UnitPrice)
	assert.True(t, out.Items[0].DiscountApplied)
	assert.Equal(t, 20.0, out.Items[1].UnitPrice)
	assert.False(t, out.Items[1].DiscountApplied)
	assert.Equal(t, 74.0, out.Subtotal)
	assert.Equal(t, 0.0, out.ShippingFee)
	assert.Equal(t, 74.0, out.TotalAmount)
	assert.False(t, out.CreatedAt.IsZero())
}

func TestCreateOrder_WithShippingFee(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 100),
			"p3": catalogEntry("p3", "Bolt", "5.00", 100),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPost, "/orders/add_order", orderPayload(
		gin.H{"product_id": "p1", "quantity": 2},
		gin.H{"product_id": "p3", "quantity": 3},
	))

	require.Equal(t, http.StatusCreated, w.Code)
	out := decodeBody[OrderResponse](t, w)
	assert.Equal(t, 35.0, out.Subtotal)
	assert.Equal(t, 5.0, out.ShippingFee)
	assert.Equal(t, 40.0, out.TotalAmount)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	router := newTestRouter(&mockProductRepo{}, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPost, "/orders/add_order", orderPayload(
		gin.H{"product_id": "ghost", "quantity": 1},
	))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product with ID ghost not found", errorDetail(t, w))
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 15),
		},
	}
	router := newTestRouter(products, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodPost, "/orders/add_order", orderPayload(
		gin.H{"product_id": "p1", "quantity": 20},
	))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t,
		"Not enough inventory for product Widget. Requested: 20, Available: 15",
		errorDetail(t, w))
}

func TestCreateOrder_ValidationFailures(t *testing.T) {
	router := newTestRouter(&mockProductRepo{}, &mockOrderRepo{})

	cases := map[string]gin.H{
		"empty items": {
			"customer_name":  "Ada",
			"customer_email": "ada@example.com",
			"items":          []gin.H{},
		},
		"bad email": {
			"customer_name":  "Ada",
			"customer_email": "not-an-email",
			"items":          []gin.H{{"product_id": "p1", "quantity": 1}},
		},
		"missing name": {
			"customer_email": "ada@example.com",
			"items":          []gin.H{{"product_id": "p1", "quantity": 1}},
		},
		"zero quantity": orderPayload(gin.H{"product_id": "p1", "quantity": 0}),
		"negative quantity": orderPayload(gin.H{"product_id": "p1", "quantity": -2}),
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/orders/add_order", payload)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestCreateOrder_RepositoryFailure(t *testing.T) {
	products := &mockProductRepo{
		byID: map[string]*product.Product{
			"p1": catalogEntry("p1", "Widget", "10.00", 100),
		},
	}
	orders := &mockOrderRepo{createErr: errors.New("tx aborted")}
	router := newTestRouter(products, orders)

	w := doJSON(t, router, http.MethodPost, "/orders/add_order", orderPayload(
		gin.H{"product_id": "p1", "quantity": 1},
	))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", errorDetail(t, w))
}

func TestGetOrder_NotFound(t *testing.T) {
	router := newTestRouter(&mockProductRepo{}, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodGet, "/orders/get_order/nope", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", errorDetail(t, w))
}

func TestGetOrder(t *testing.T) {
	o := &order.Order{
		ID:            "o1",
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Lines: []order.Line{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
		Subtotal:    decimal.RequireFromString("20.00"),
		ShippingFee: decimal.RequireFromString("5"),
		TotalAmount: decimal.RequireFromString("25.00"),
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	orders := &mockOrderRepo{byID: map[string]*order.Order{"o1": o}}
	router := newTestRouter(&mockProductRepo{}, orders)

	w := doJSON(t, router, http.MethodGet, "/orders/get_order/o1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[OrderResponse](t, w)
	assert.Equal(t, "o1", out.ID)
	assert.Equal(t, 25.0, out.TotalAmount)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 2, out.Items[0].Quantity)
}

func TestListOrders(t *testing.T) {
	orders := &mockOrderRepo{
		listed: []order.Order{
			{ID: "o1", Subtotal: decimal.NewFromInt(10), TotalAmount: decimal.NewFromInt(15)},
			{ID: "o2", Subtotal: decimal.NewFromInt(60), TotalAmount: decimal.NewFromInt(60)},
		},
	}
	router := newTestRouter(&mockProductRepo{}, orders)

	w := doJSON(t, router, http.MethodGet, "/orders/get_all_orders", nil)

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[[]OrderResponse](t, w)
	require.Len(t, out, 2)
	assert.Equal(t, "o1", out[0].ID)
	assert.Equal(t, "o2", out[1].ID)
}

func TestRootBanner(t *testing.T) {
	router := newTestRouter(&mockProductRepo{}, &mockOrderRepo{})

	w := doJSON(t, router, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.NotEmpty(t, body["message"])
}
