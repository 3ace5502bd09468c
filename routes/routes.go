package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"table-order-api/broker"
	"table-order-api/handlers"
	"table-order-api/models"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, b *broker.Broker, log *logrus.Logger) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/login", h.Login)

		// Guest ordering page
		public.GET("/menu", h.GetMenu)
		public.GET("/rooms/:roomNumber/menu", h.GetRoomMenu)
		public.POST("/orders", h.CreateOrder)
		public.GET("/orders/:id", h.GetOrder)
	}

	// ── Authenticated staff routes ─────────────────────────────────
	auth := r.Group("/api")
	auth.Use(h.Auth.AuthRequired())
	{
		auth.GET("/profile", h.GetProfile)
	}

	// ── Staff routes (waiter, kitchen, admin) ──────────────────────
	staff := r.Group("/api/staff")
	staff.Use(h.Auth.AuthRequired(), h.Auth.RoleRequired(models.RoleAdmin, models.RoleWaiter, models.RoleKitchen))
	{
		staff.GET("/orders", h.ListOrders)
		staff.PUT("/orders/:id/status", h.UpdateOrderStatus)
		staff.PUT("/orders/:id/cancel", h.CancelOrder)
		staff.GET("/rooms", h.ListRooms)
		staff.GET("/rooms/:roomNumber", h.GetRoom)
		staff.POST("/rooms/:roomNumber/release", h.ReleaseRoom)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(h.Auth.AuthRequired(), h.Auth.RoleRequired(models.RoleAdmin))
	{
		admin.POST("/auth/register", h.Register)
		admin.GET("/users", h.ListUsers)
		admin.GET("/dashboard", h.Dashboard)

		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.POST("/dishes", h.CreateDish)
		admin.PUT("/dishes/:id", h.UpdateDish)
		admin.DELETE("/dishes/:id", h.DeleteDish)

		admin.POST("/rooms", h.CreateRoom)
		admin.PUT("/rooms/:roomNumber", h.UpdateRoom)
		admin.DELETE("/rooms/:roomNumber", h.DeleteRoom)
		admin.GET("/rooms/:roomNumber/qr", h.RoomQRCode)

		// Orders are never hard-deleted; the route answers with an
		// explicit refusal for audit clarity.
		admin.DELETE("/orders/:id", h.DeleteOrder)
	}

	// ── Live order feed for kitchen/dashboard viewers ──────────────
	r.GET("/ws/orders", broker.ServeWS(b, log))
}
