package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/order"
)

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	CustomerName  string             `json:"customer_name" binding:"required"`
	CustomerEmail string             `json:"customer_email" binding:"required,email"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemRequest is one requested (product, quantity) pair.
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// OrderItemResponse is the wire representation of a priced order line.
type OrderItemResponse struct {
	ProductID       string  `json:"product_id"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountApplied bool    `json:"discount_applied"`
}

// OrderResponse is the wire representation of a completed order.
type OrderResponse struct {
	ID            string              `json:"id"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	Items         []OrderItemResponse `json:"items"`
	Subtotal      float64             `json:"subtotal"`
	ShippingFee   float64             `json:"shipping_fee"`
	TotalAmount   float64             `json:"total_amount"`
	CreatedAt     time.Time           `json:"created_at"`
}

func toOrderResponse(o order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Lines))
	for i, ln := range o.Lines {
		items[i] = OrderItemResponse{
			ProductID:       ln.ProductID,
			Quantity:        ln.Quantity,
			UnitPrice:       ln.UnitPrice.InexactFloat64(),
			DiscountApplied: ln.DiscountApplied,
		}
	}
	return OrderResponse{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Items:         items,
		Subtotal:      o.Subtotal.InexactFloat64(),
		ShippingFee:   o.ShippingFee.InexactFloat64(),
		TotalAmount:   o.TotalAmount.InexactFloat64(),
		CreatedAt:     o.CreatedAt,
	}
}

// CreateOrder validates the request, delegates to the order service, and maps
// the result or typed failure to a response.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}

	lines := make([]order.LineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = order.LineRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	o, err := h.orders.Create(c.Request.Context(), order.CreateOrderRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Lines:         lines,
	})
	if err != nil {
		h.mapOrderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*o))
}

// ListOrders returns orders in creation order, paginated by skip/limit.
func (h *Handler) ListOrders(c *gin.Context) {
	skip, limit := pagination(c)

	orders, err := h.orders.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.serverError(c, "list orders", err)
		return
	}

	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	c.JSON(http.StatusOK, out)
}

// GetOrder returns a single order by id.
func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("Order not found"))
			return
		}
		h.serverError(c, "get order", err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

// mapOrderError converts typed order-placement failures to responses.
// Client errors are never retried server-side; the caller must resubmit.
func (h *Handler) mapOrderError(c *gin.Context, err error) {
	if errors.Is(err, order.ErrEmptyLines) {
		c.JSON(http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		c.JSON(http.StatusNotFound, errorBody(fmt.Sprintf(
			"Product with ID %s not found", pnfErr.ProductID,
		)))
		return
	}

	var stockErr *order.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusBadRequest, errorBody(fmt.Sprintf(
			"Not enough inventory for product %s. Requested: %d, Available: %d",
			stockErr.Name, stockErr.Requested, stockErr.Available,
		)))
		return
	}

	h.serverError(c, "create order", err)
}
