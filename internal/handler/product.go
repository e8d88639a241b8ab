package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/product"
)

// CreateProductRequest is the payload for registering a catalog product:
// price must be strictly positive and inventory non-negative.
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Inventory   int             `json:"inventory" binding:"gte=0"`
}

// ProductResponse is the wire representation of a catalog product.
type ProductResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Inventory   int     `json:"inventory"`
}

// InventoryUpdateRequest carries the stock delta: positive to add inventory,
// negative to remove. The field is a pointer so an omitted quantity is
// rejected instead of silently applying a zero delta.
type InventoryUpdateRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func toProductResponse(p product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Inventory:   p.Stock,
	}
}

// ListProducts returns products in creation order, paginated by skip/limit.
func (h *Handler) ListProducts(c *gin.Context) {
	skip, limit := pagination(c)

	products, err := h.products.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.serverError(c, "list products", err)
		return
	}

	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	c.JSON(http.StatusOK, out)
}

// GetProduct returns a single product by id.
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("Product not found"))
			return
		}
		h.serverError(c, "get product", err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

// CreateProduct validates and persists a new catalog product.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusUnprocessableEntity, errorBody("price must be greater than 0"))
		return
	}

	p := &product.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Inventory,
	}
	if err := h.products.Create(c.Request.Context(), p); err != nil {
		if errors.Is(err, product.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, errorBody("Product already exists"))
			return
		}
		h.serverError(c, "create product", err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(*p))
}

// UpdateProductInventory adjusts a product's stock by a signed delta.
func (h *Handler) UpdateProductInventory(c *gin.Context) {
	var req InventoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}

	p, err := h.products.AdjustStock(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("Product not found"))
			return
		}
		var adjErr *product.InvalidAdjustmentError
		if errors.As(err, &adjErr) {
			c.JSON(http.StatusBadRequest, errorBody(fmt.Sprintf(
				"Cannot reduce inventory below zero. Current inventory: %d, Requested change: %d",
				adjErr.Current, adjErr.Delta,
			)))
			return
		}
		h.serverError(c, "adjust inventory", err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

// serverError logs the failure and responds with a generic 500.
func (h *Handler) serverError(c *gin.Context, msg string, err error) {
	zctx.From(c.Request.Context()).Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorBody("Internal Server Error"))
}
