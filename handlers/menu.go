package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-order-api/models"
)

// GetMenu returns all categories with their available dishes (public)
func (h *Handler) GetMenu(c *gin.Context) {
	var categories []models.Category
	query := h.DB.Preload("Dishes", "is_available = ? AND stock != 0", true).
		Order("sort_order")
	if err := query.Find(&categories).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(categories), "menu": categories})
}

// GetRoomMenu returns the menu addressed from a table QR code, together
// with the room so the ordering page can show where the guest is seated
func (h *Handler) GetRoomMenu(c *gin.Context) {
	room, err := h.Rooms.Get(c.Param("roomNumber"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	var categories []models.Category
	if err := h.DB.Preload("Dishes", "is_available = ? AND stock != 0", true).
		Order("sort_order").Find(&categories).Error; err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": room, "menu": categories})
}

type DishRequest struct {
	CategoryID  uint    `json:"category_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	ImageURL    string  `json:"image_url"`
	IsAvailable *bool   `json:"is_available"`
	Stock       *int    `json:"stock"`
}

// CreateDish adds a dish to the menu (admin)
func (h *Handler) CreateDish(c *gin.Context) {
	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var category models.Category
	if err := h.DB.First(&category, req.CategoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	dish := models.Dish{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsAvailable: true,
		Stock:       -1,
	}
	if req.IsAvailable != nil {
		dish.IsAvailable = *req.IsAvailable
	}
	if req.Stock != nil {
		dish.Stock = *req.Stock
	}

	if err := h.DB.Create(&dish).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Dish created", "dish": dish})
}

// UpdateDish edits a dish. Existing orders keep their snapshots.
func (h *Handler) UpdateDish(c *gin.Context) {
	var dish models.Dish
	if err := h.DB.First(&dish, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}

	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dish.CategoryID = req.CategoryID
	dish.Name = req.Name
	dish.Description = req.Description
	dish.Price = req.Price
	dish.ImageURL = req.ImageURL
	if req.IsAvailable != nil {
		dish.IsAvailable = *req.IsAvailable
	}
	if req.Stock != nil {
		dish.Stock = *req.Stock
	}

	if err := h.DB.Save(&dish).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish updated", "dish": dish})
}

// DeleteDish removes a dish from the menu
func (h *Handler) DeleteDish(c *gin.Context) {
	var dish models.Dish
	if err := h.DB.First(&dish, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}
	if err := h.DB.Delete(&dish).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish deleted", "dish_id": dish.ID})
}

type CategoryRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// CreateCategory adds a menu category (admin)
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := models.Category{Name: req.Name, SortOrder: req.SortOrder}
	if err := h.DB.Create(&category).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Category already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": category})
}

// UpdateCategory renames or reorders a category
func (h *Handler) UpdateCategory(c *gin.Context) {
	var category models.Category
	if err := h.DB.First(&category, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category.Name = req.Name
	category.SortOrder = req.SortOrder
	if err := h.DB.Save(&category).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated", "category": category})
}

// DeleteCategory removes an empty category
func (h *Handler) DeleteCategory(c *gin.Context) {
	var category models.Category
	if err := h.DB.First(&category, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	var dishCount int64
	h.DB.Model(&models.Dish{}).Where("category_id = ?", category.ID).Count(&dishCount)
	if dishCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Category still has dishes"})
		return
	}
	if err := h.DB.Delete(&category).Error; err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted", "category_id": category.ID})
}
