package main

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"table-order-api/broker"
	"table-order-api/config"
	"table-order-api/handlers"
	"table-order-api/middleware"
	"table-order-api/routes"
	"table-order-api/seeders"
	"table-order-api/services"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	log.WithField("path", cfg.DBPath).Info("database connected and migrated")

	seeders.Seed(db, log)

	// Single construction point for shared state: store and event broker
	// are built here and injected everywhere they are used.
	b := broker.New(cfg.BrokerBuffer)
	auth := middleware.NewAuth(cfg.JWTSecret)
	orderSvc := services.NewOrderService(db, b, log)
	roomSvc := services.NewRoomService(db, log, cfg.OrderPageBase)
	h := handlers.New(db, orderSvc, roomSvc, auth, log)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Table Order Management API",
			"viewers": b.SubscriberCount(),
		})
	})

	routes.SetupRoutes(r, h, b, log)

	log.WithField("port", cfg.Port).Info("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
