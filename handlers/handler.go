package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"table-order-api/middleware"
	"table-order-api/services"
	"table-order-api/statemachine"
)

// Handler bundles the injected collaborators every endpoint needs.
type Handler struct {
	DB     *gorm.DB
	Orders *services.OrderService
	Rooms  *services.RoomService
	Auth   *middleware.Auth
	Log    *logrus.Logger
}

func New(db *gorm.DB, orders *services.OrderService, rooms *services.RoomService, auth *middleware.Auth, log *logrus.Logger) *Handler {
	return &Handler{DB: db, Orders: orders, Rooms: rooms, Auth: auth, Log: log}
}

// serviceError maps service-layer errors onto HTTP statuses. Lifecycle
// violations, stale-state conflicts and missing records each get a distinct
// status so clients can tell them apart.
func (h *Handler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, statemachine.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDishUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrStatusConflict),
		errors.Is(err, services.ErrRoomBusy),
		errors.Is(err, services.ErrRoomUnavailable),
		errors.Is(err, services.ErrRoomNotOccupied):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.Log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
