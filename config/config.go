package config

import (
	"os"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"table-order-api/models"
)

// Config holds everything read from the environment. It is built once in
// main and handed to the pieces that need it; nothing in this package keeps
// ambient state beyond the loaded values.
type Config struct {
	Port          string
	DBPath        string
	JWTSecret     []byte
	LogLevel      string
	BrokerBuffer  int
	OrderPageBase string // base URL encoded into table QR codes
}

// Load reads .env if present and builds the Config from the environment.
func Load() Config {
	// Missing .env is fine in production where env vars come from the host.
	_ = godotenv.Load()

	return Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "table_orders.db"),
		JWTSecret:     []byte(getEnv("JWT_SECRET", "table_order_super_secret_2024")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		BrokerBuffer:  64,
		OrderPageBase: getEnv("ORDER_PAGE_BASE", "http://localhost:3000/order"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewLogger builds the process-wide structured logger.
func NewLogger(cfg Config) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// OpenDB opens the sqlite database and migrates all models.
func OpenDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Dish{},
		&models.Room{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
