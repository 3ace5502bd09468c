package seeders

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"table-order-api/models"
)

// Seed inserts a default admin, menu and rooms on first boot. It is
// idempotent: existing records are left alone.
func Seed(db *gorm.DB, log *logrus.Logger) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("seed: hash password")
		return
	}
	users := []models.User{
		{Name: "Administrator", Email: "admin@example.com", PasswordHash: string(hash), Role: models.RoleAdmin},
	}
	for _, user := range users {
		db.FirstOrCreate(&user, models.User{Email: user.Email})
	}

	categories := []models.Category{
		{Name: "Mains", SortOrder: 1},
		{Name: "Sides", SortOrder: 2},
		{Name: "Drinks", SortOrder: 3},
	}
	for i := range categories {
		db.FirstOrCreate(&categories[i], models.Category{Name: categories[i].Name})
	}

	dishes := []models.Dish{
		{CategoryID: categories[0].ID, Name: "Fried Rice", Price: 6.5, Stock: -1, IsAvailable: true},
		{CategoryID: categories[0].ID, Name: "Chicken Curry", Price: 8, Stock: -1, IsAvailable: true},
		{CategoryID: categories[1].ID, Name: "Spring Rolls", Price: 4, Stock: -1, IsAvailable: true},
		{CategoryID: categories[2].ID, Name: "Iced Tea", Price: 2, Stock: -1, IsAvailable: true},
		{CategoryID: categories[2].ID, Name: "Fresh Juice", Price: 3.5, Stock: -1, IsAvailable: true},
	}
	for _, dish := range dishes {
		db.FirstOrCreate(&dish, models.Dish{Name: dish.Name})
	}

	rooms := []models.Room{
		{RoomNumber: "T1", Name: "Table 1", Floor: "1", Capacity: 2},
		{RoomNumber: "T2", Name: "Table 2", Floor: "1", Capacity: 4},
		{RoomNumber: "T3", Name: "Table 3", Floor: "1", Capacity: 4},
		{RoomNumber: "R5", Name: "Room 5", Floor: "2", Capacity: 6},
	}
	for _, room := range rooms {
		room.Status = models.RoomAvailable
		db.FirstOrCreate(&room, models.Room{RoomNumber: room.RoomNumber})
	}

	log.Info("database seeded")
}
