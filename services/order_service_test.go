package services

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"table-order-api/broker"
	"table-order-api/models"
	"table-order-api/statemachine"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// A pooled :memory: database is one database per connection; pin the
	// pool to a single connection so all queries see the same data.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Dish{}, &models.Room{},
		&models.Order{}, &models.OrderItem{}, &models.OrderStatusHistory{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedDish(t *testing.T, db *gorm.DB, name string, price float64, available bool, stock int) models.Dish {
	t.Helper()
	cat := models.Category{Name: "mains-" + name}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	dish := models.Dish{CategoryID: cat.ID, Name: name, Price: price, IsAvailable: available, Stock: stock}
	if err := db.Create(&dish).Error; err != nil {
		t.Fatalf("seed dish: %v", err)
	}
	return dish
}

func seedRoom(t *testing.T, db *gorm.DB, number string) models.Room {
	t.Helper()
	room := models.Room{RoomNumber: number, Status: models.RoomAvailable}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return room
}

func newTestOrderService(t *testing.T) (*OrderService, *gorm.DB, *broker.Broker) {
	t.Helper()
	db := newTestDB(t)
	b := broker.New(16)
	return NewOrderService(db, b, newTestLogger()), db, b
}

func TestCreateOrderComputesTotal(t *testing.T) {
	s, _, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)

	order, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items:   []CreateOrderItemInput{{DishID: rice.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.TotalAmount != 6 {
		t.Errorf("total = %v, want 6", order.TotalAmount)
	}
	if order.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if order.PreparingAt != nil || order.ReadyAt != nil || order.DeliveredAt != nil {
		t.Error("stage timestamps must be nil on a fresh order")
	}
	if len(order.Items) != 1 || order.Items[0].Name != "Rice" || order.Items[0].Price != 2 {
		t.Errorf("item snapshot wrong: %+v", order.Items)
	}
	if order.OrderNumber == "" {
		t.Error("order number must be generated")
	}
}

func TestCreateOrderSnapshotsDishFields(t *testing.T) {
	s, db, _ := newTestOrderService(t)
	dish := seedDish(t, s.db, "Laksa", 8, true, -1)

	order, err := s.Create(CreateOrderInput{
		TableID: "T2",
		Items:   []CreateOrderItemInput{{DishID: dish.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Later menu edits must not alter the historical order.
	if err := db.Model(&models.Dish{}).Where("id = ?", dish.ID).
		Updates(map[string]interface{}{"name": "Laksa Special", "price": 12}).Error; err != nil {
		t.Fatalf("edit dish: %v", err)
	}

	reloaded, err := s.Get(order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Items[0].Name != "Laksa" || reloaded.Items[0].Price != 8 {
		t.Errorf("snapshot changed after dish edit: %+v", reloaded.Items[0])
	}
	if reloaded.TotalAmount != 8 {
		t.Errorf("total changed after dish edit: %v", reloaded.TotalAmount)
	}
}

func TestCreateOrderRejectsUnavailableDish(t *testing.T) {
	s, db, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)
	soup := seedDish(t, s.db, "Soup", 4, false, -1)

	_, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items: []CreateOrderItemInput{
			{DishID: rice.ID, Quantity: 1},
			{DishID: soup.ID, Quantity: 1},
		},
	})
	if !errors.Is(err, ErrDishUnavailable) {
		t.Fatalf("expected ErrDishUnavailable, got %v", err)
	}

	// The whole creation rolls back: no partial order exists.
	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no persisted orders, got %d", count)
	}
}

func TestCreateOrderRejectsUnknownDish(t *testing.T) {
	s, _, _ := newTestOrderService(t)
	_, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items:   []CreateOrderItemInput{{DishID: 999, Quantity: 1}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	s, db, _ := newTestOrderService(t)
	cake := seedDish(t, s.db, "Cake", 5, true, 2)

	if _, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items:   []CreateOrderItemInput{{DishID: cake.ID, Quantity: 3}},
	}); !errors.Is(err, ErrDishUnavailable) {
		t.Fatalf("over-stock order: expected ErrDishUnavailable, got %v", err)
	}

	if _, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items:   []CreateOrderItemInput{{DishID: cake.ID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var dish models.Dish
	db.First(&dish, cake.ID)
	if dish.Stock != 0 {
		t.Errorf("stock = %d, want 0", dish.Stock)
	}

	if _, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items:   []CreateOrderItemInput{{DishID: cake.ID, Quantity: 1}},
	}); !errors.Is(err, ErrDishUnavailable) {
		t.Fatalf("sold-out order: expected ErrDishUnavailable, got %v", err)
	}
}

func TestCreateOrderOccupiesRoom(t *testing.T) {
	s, db, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)
	seedRoom(t, db, "R5")

	order, err := s.Create(CreateOrderInput{
		TableID:    "T1",
		RoomNumber: "R5",
		Items:      []CreateOrderItemInput{{DishID: rice.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var room models.Room
	db.Where("room_number = ?", "R5").First(&room)
	if room.Status != models.RoomOccupied {
		t.Errorf("room status = %s, want occupied", room.Status)
	}
	if room.OccupiedBy == nil || *room.OccupiedBy != order.ID {
		t.Errorf("room occupied_by = %v, want %d", room.OccupiedBy, order.ID)
	}
}

func TestCreateOrderRejectsBusyRoom(t *testing.T) {
	s, db, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)
	seedRoom(t, db, "R5")

	items := []CreateOrderItemInput{{DishID: rice.ID, Quantity: 1}}
	if _, err := s.Create(CreateOrderInput{TableID: "T1", RoomNumber: "R5", Items: items}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.Create(CreateOrderInput{TableID: "T2", RoomNumber: "R5", Items: items})
	if !errors.Is(err, ErrRoomBusy) {
		t.Fatalf("expected ErrRoomBusy, got %v", err)
	}
}

func TestCreateOrderRejectsMaintenanceRoom(t *testing.T) {
	s, db, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)
	room := seedRoom(t, db, "R6")
	db.Model(&models.Room{}).Where("id = ?", room.ID).Update("status", models.RoomMaintenance)

	_, err := s.Create(CreateOrderInput{
		TableID:    "T1",
		RoomNumber: "R6",
		Items:      []CreateOrderItemInput{{DishID: rice.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrRoomUnavailable) {
		t.Fatalf("expected ErrRoomUnavailable, got %v", err)
	}
}

func TestCreateOrderRejectsUnknownRoom(t *testing.T) {
	s, _, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)
	_, err := s.Create(CreateOrderInput{
		TableID:    "T1",
		RoomNumber: "R404",
		Items:      []CreateOrderItemInput{{DishID: rice.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFullLifecycleStampsTimestampsOnce(t *testing.T) {
	s, db, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)
	seedRoom(t, db, "R5")

	order, err := s.Create(CreateOrderInput{
		TableID:    "T1",
		RoomNumber: "R5",
		Items:      []CreateOrderItemInput{{DishID: rice.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	order, err = s.UpdateStatus(order.ID, models.StatusConfirmed, 1, "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if order.PreparingAt != nil {
		t.Error("preparing_at must still be nil after confirm")
	}

	order, err = s.UpdateStatus(order.ID, models.StatusPreparing, 1, "")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if order.PreparingAt == nil {
		t.Fatal("preparing_at must be set on entering preparing")
	}
	prepAt := *order.PreparingAt

	order, err = s.UpdateStatus(order.ID, models.StatusReady, 1, "")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	if order.ReadyAt == nil {
		t.Fatal("ready_at must be set on entering ready")
	}
	if !order.PreparingAt.Equal(prepAt) {
		t.Error("preparing_at must not change on later transitions")
	}

	order, err = s.UpdateStatus(order.ID, models.StatusDelivered, 1, "")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if order.DeliveredAt == nil {
		t.Fatal("delivered_at must be set on entering delivered")
	}

	// Terminal transition released the room in the same transaction.
	var room models.Room
	db.Where("room_number = ?", "R5").First(&room)
	if room.Status != models.RoomAvailable || room.OccupiedBy != nil {
		t.Errorf("room not released: status=%s occupied_by=%v", room.Status, room.OccupiedBy)
	}

	// Delivered is absorbing.
	if _, err := s.UpdateStatus(order.ID, models.StatusPending, 1, ""); !errors.Is(err, statemachine.ErrInvalidTransition) {
		t.Fatalf("delivered -> pending: expected ErrInvalidTransition, got %v", err)
	}

	// History records every step: pending entry plus four transitions.
	order, _ = s.Get(order.ID)
	if len(order.StatusHistory) != 5 {
		t.Errorf("history entries = %d, want 5", len(order.StatusHistory))
	}
}

func TestSkippedStageRejectedWithoutMutation(t *testing.T) {
	s, _, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)

	order, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items:   []CreateOrderItemInput{{DishID: rice.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = s.UpdateStatus(order.ID, models.StatusReady, 1, "")
	if !errors.Is(err, statemachine.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	reloaded, _ := s.Get(order.ID)
	if reloaded.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", reloaded.Status)
	}
	if reloaded.ReadyAt != nil {
		t.Error("ready_at must not be stamped by a rejected transition")
	}
}

func TestCancelReleasesRoom(t *testing.T) {
	s, db, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)
	seedRoom(t, db, "R7")

	order, err := s.Create(CreateOrderInput{
		TableID:    "T1",
		RoomNumber: "R7",
		Items:      []CreateOrderItemInput{{DishID: rice.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.UpdateStatus(order.ID, models.StatusCancelled, 1, "guest left"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var room models.Room
	db.Where("room_number = ?", "R7").First(&room)
	if room.Status != models.RoomAvailable || room.OccupiedBy != nil {
		t.Errorf("room not released after cancel: status=%s occupied_by=%v", room.Status, room.OccupiedBy)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	s, _, _ := newTestOrderService(t)
	if _, err := s.UpdateStatus(42, models.StatusConfirmed, 1, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentTransitionsExactlyOneWins(t *testing.T) {
	s, _, _ := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)

	order, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items:   []CreateOrderItemInput{{DishID: rice.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Both requests read the order while it is still pending, then race.
	snap1, _ := s.Get(order.ID)
	snap2, _ := s.Get(order.ID)

	results := make(chan error, 2)
	go func() {
		_, err := s.applyTransition(snap1, models.StatusConfirmed, 1, "")
		results <- err
	}()
	go func() {
		_, err := s.applyTransition(snap2, models.StatusCancelled, 2, "")
		results <- err
	}()

	var wins, conflicts int
	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrStatusConflict):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for transitions")
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins=%d conflicts=%d, want exactly one of each", wins, conflicts)
	}
}

func TestLifecycleEventsReachViewerInOrder(t *testing.T) {
	s, _, b := newTestOrderService(t)
	rice := seedDish(t, s.db, "Rice", 2, true, -1)

	events, cancel := b.Subscribe()
	defer cancel()

	order, err := s.Create(CreateOrderInput{
		TableID: "T1",
		Items:   []CreateOrderItemInput{{DishID: rice.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.UpdateStatus(order.ID, models.StatusConfirmed, 1, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	first := <-events
	if first.Kind != broker.EventNewOrder {
		t.Fatalf("first event = %s, want NEW_ORDER", first.Kind)
	}
	second := <-events
	if second.Kind != broker.EventOrderStatusUpdate {
		t.Fatalf("second event = %s, want ORDER_STATUS_UPDATE", second.Kind)
	}
	payload, ok := second.Payload.(broker.StatusUpdatePayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", second.Payload)
	}
	if payload.OrderID != order.ID || payload.Status != models.StatusConfirmed {
		t.Errorf("payload = %+v", payload)
	}
}
