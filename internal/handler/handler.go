// Package handler exposes the HTTP surface of the service: request DTOs with
// binding validation, route registration, and mapping of typed domain errors
// to response codes.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/order"
	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/product"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Handler holds the dependencies shared by all HTTP endpoints.
type Handler struct {
	products product.Repository
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(products product.Repository, orders *order.Service) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
	}
}

// Router builds the gin engine with all application routes. Recovery, logging,
// and the rest of the middleware chain are applied outside, around the engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Mini Order Processing Service"})
	})

	products := r.Group("/products")
	{
		products.GET("/get_all_products", h.ListProducts)
		products.GET("/get_product/:id", h.GetProduct)
		products.POST("/add_product", h.CreateProduct)
		products.PATCH("/update_product_inventory/:id", h.UpdateProductInventory)
	}

	orders := r.Group("/orders")
	{
		orders.POST("/add_order", h.CreateOrder)
		orders.GET("/get_all_orders", h.ListOrders)
		orders.GET("/get_order/:id", h.GetOrder)
	}

	return r
}

// errorBody is the uniform error payload: {"detail": "<message>"}.
func errorBody(detail string) gin.H {
	return gin.H{"detail": detail}
}

// pagination extracts skip/limit query parameters, clamping out-of-range
// values rather than rejecting them.
func pagination(c *gin.Context) (skip, limit int) {
	skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
