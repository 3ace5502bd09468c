package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"table-order-api/middleware"
	"table-order-api/models"
	"table-order-api/services"
	"table-order-api/statemachine"
)

// CreateOrder places a new guest order from the table ordering page
func (h *Handler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Orders.Create(req)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetOrder returns a single order with items and status history
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	order, err := h.Orders.Get(uint(id))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListOrders returns orders for the staff dashboard, filterable by status
// and room, with a per-status summary
func (h *Handler) ListOrders(c *gin.Context) {
	filter := services.ListFilter{
		Status:     models.OrderStatus(c.Query("status")),
		RoomNumber: c.Query("room_number"),
		Active:     c.Query("active") == "true",
	}
	orders, err := h.Orders.List(filter)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"count":         len(orders),
		"order_summary": summary,
		"orders":        orders,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// UpdateOrderStatus moves an order through its lifecycle
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Orders.UpdateStatus(uint(id), req.Status, middleware.GetUserID(c), req.Note)
	if err != nil {
		if errors.Is(err, statemachine.ErrInvalidTransition) {
			current, getErr := h.Orders.Get(uint(id))
			if getErr != nil {
				h.serviceError(c, getErr)
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":             "Invalid state transition",
				"current_status":    current.Status,
				"requested":         req.Status,
				"reason":            err.Error(),
				"valid_next_states": statemachine.ValidNext(current.Status),
			})
			return
		}
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}

// CancelOrder is a shortcut for transitioning to cancelled
func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := h.Orders.UpdateStatus(uint(id), models.StatusCancelled, middleware.GetUserID(c), req.Note)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}

// DeleteOrder always refuses: orders feed financial reporting and are kept
// for audit. The route exists so the refusal is explicit rather than a 404.
func (h *Handler) DeleteOrder(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{
		"error": "Orders cannot be deleted; cancel the order instead",
	})
}
