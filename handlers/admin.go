package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-order-api/models"
)

// Dashboard aggregates orders by status, revenue from delivered orders and
// a payment-method breakdown — admin only
func (h *Handler) Dashboard(c *gin.Context) {
	var orders []models.Order
	query := h.DB.Model(&models.Order{})
	if from := c.Query("from"); from != "" {
		query = query.Where("created_at >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("created_at < ?", to)
	}
	if err := query.Find(&orders).Error; err != nil {
		h.serviceError(c, err)
		return
	}

	summary := map[string]int{}
	payments := map[string]float64{}
	var totalRevenue float64
	for _, o := range orders {
		summary[string(o.Status)]++
		if o.Status == models.StatusDelivered {
			totalRevenue += o.TotalAmount
			method := o.PaymentMethod
			if method == "" {
				method = "unspecified"
			}
			payments[method] += o.TotalAmount
		}
	}

	var occupiedRooms int64
	h.DB.Model(&models.Room{}).Where("status = ?", models.RoomOccupied).Count(&occupiedRooms)

	c.JSON(http.StatusOK, gin.H{
		"order_summary":  summary,
		"total_revenue":  totalRevenue,
		"payments":       payments,
		"occupied_rooms": occupiedRooms,
		"count":          len(orders),
	})
}

// ListUsers returns all staff accounts — admin only
func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User
	query := h.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Find(&users).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}
