package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"table-order-api/models"
)

// ListRooms returns the occupancy board for staff. Rooms whose occupancy
// reference points at an already-finished order are surfaced as warnings.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Rooms.List(models.RoomStatus(c.Query("status")))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	stale, err := h.Rooms.CheckOccupancy()
	if err != nil {
		h.serviceError(c, err)
		return
	}
	warnings := make([]string, 0, len(stale))
	for _, r := range stale {
		warnings = append(warnings, "room "+r.RoomNumber+" references a finished order")
	}

	c.JSON(http.StatusOK, gin.H{
		"count":              len(rooms),
		"rooms":              rooms,
		"occupancy_warnings": warnings,
	})
}

// GetRoom returns one room with its active order, if any
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.Rooms.Get(c.Param("roomNumber"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	resp := gin.H{"room": room}
	if room.OccupiedBy != nil {
		if order, err := h.Orders.Get(*room.OccupiedBy); err == nil {
			resp["active_order"] = order
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ReleaseRoom clears a room's occupancy by explicit staff action
func (h *Handler) ReleaseRoom(c *gin.Context) {
	room, err := h.Rooms.Release(c.Param("roomNumber"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room released", "room": room})
}

type RoomRequest struct {
	RoomNumber string            `json:"room_number" binding:"required"`
	Name       string            `json:"name"`
	Floor      string            `json:"floor"`
	Capacity   int               `json:"capacity"`
	Status     models.RoomStatus `json:"status"`
}

// CreateRoom registers a new room/table (admin)
func (h *Handler) CreateRoom(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room := models.Room{
		RoomNumber: req.RoomNumber,
		Name:       req.Name,
		Floor:      req.Floor,
		Capacity:   req.Capacity,
		Status:     models.RoomAvailable,
	}
	if req.Status != "" {
		room.Status = req.Status
	}
	if err := h.DB.Create(&room).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Room number already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Room created", "room": room})
}

// UpdateRoom edits room metadata or sets reserved/maintenance status.
// Occupancy fields are owned by the order lifecycle and cannot be set here.
func (h *Handler) UpdateRoom(c *gin.Context) {
	room, err := h.Rooms.Get(c.Param("roomNumber"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	var req struct {
		Name     string            `json:"name"`
		Floor    string            `json:"floor"`
		Capacity int               `json:"capacity"`
		Status   models.RoomStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == models.RoomOccupied || (req.Status != "" && room.OccupiedBy != nil) {
		c.JSON(http.StatusConflict, gin.H{"error": "Occupancy is driven by orders; release the room instead"})
		return
	}

	if req.Name != "" {
		room.Name = req.Name
	}
	if req.Floor != "" {
		room.Floor = req.Floor
	}
	if req.Capacity > 0 {
		room.Capacity = req.Capacity
	}
	if req.Status != "" {
		room.Status = req.Status
	}
	if err := h.DB.Save(room).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room updated", "room": room})
}

// DeleteRoom removes a room that holds no active order (admin)
func (h *Handler) DeleteRoom(c *gin.Context) {
	room, err := h.Rooms.Get(c.Param("roomNumber"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if room.OccupiedBy != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Room has an active order"})
		return
	}
	if err := h.DB.Delete(room).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted", "room_number": room.RoomNumber})
}

// RoomQRCode renders the guest ordering link for a room as a PNG (admin)
func (h *Handler) RoomQRCode(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	png, err := h.Rooms.QRCode(c.Param("roomNumber"), size)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
