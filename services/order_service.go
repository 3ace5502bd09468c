package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"table-order-api/broker"
	"table-order-api/models"
	"table-order-api/statemachine"
)

// OrderService owns the order lifecycle: creation with dish snapshots and
// room occupancy, compare-and-swap status transitions, and event publishing.
type OrderService struct {
	db     *gorm.DB
	broker *broker.Broker
	log    *logrus.Logger
}

func NewOrderService(db *gorm.DB, b *broker.Broker, log *logrus.Logger) *OrderService {
	return &OrderService{db: db, broker: b, log: log}
}

type CreateOrderItemInput struct {
	DishID   uint `json:"dish_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderInput struct {
	TableID       string                 `json:"table_id" binding:"required"`
	RoomNumber    string                 `json:"room_number"`
	Note          string                 `json:"note"`
	PaymentMethod string                 `json:"payment_method"`
	Items         []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// Create persists a new pending order. Dish name and price are snapshotted
// into the order items and the total is computed server-side. When a room
// number is given, the room is marked occupied in the same transaction; a
// room that already holds an active order rejects the whole creation.
func (s *OrderService) Create(in CreateOrderInput) (*models.Order, error) {
	order := &models.Order{
		OrderNumber:   fmt.Sprintf("ORD-%s", uuid.NewString()[:8]),
		TableID:       in.TableID,
		RoomNumber:    in.RoomNumber,
		Status:        models.StatusPending,
		Note:          in.Note,
		PaymentMethod: in.PaymentMethod,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var total float64
		for _, reqItem := range in.Items {
			var dish models.Dish
			if err := tx.First(&dish, reqItem.DishID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: dish %d", ErrNotFound, reqItem.DishID)
				}
				return err
			}
			if !dish.IsAvailable || dish.Stock == 0 {
				return fmt.Errorf("%w: %s", ErrDishUnavailable, dish.Name)
			}
			if dish.Stock > 0 {
				res := tx.Model(&models.Dish{}).
					Where("id = ? AND stock >= ?", dish.ID, reqItem.Quantity).
					Update("stock", gorm.Expr("stock - ?", reqItem.Quantity))
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("%w: %s", ErrDishUnavailable, dish.Name)
				}
			}
			total += dish.Price * float64(reqItem.Quantity)
			order.Items = append(order.Items, models.OrderItem{
				DishID:   dish.ID,
				Quantity: reqItem.Quantity,
				Price:    dish.Price,
				Name:     dish.Name,
			})
		}
		order.TotalAmount = total

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if in.RoomNumber != "" {
			var room models.Room
			if err := tx.Where("room_number = ?", in.RoomNumber).First(&room).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: room %s", ErrNotFound, in.RoomNumber)
				}
				return err
			}
			if room.Status == models.RoomMaintenance {
				return fmt.Errorf("%w: room %s is under maintenance", ErrRoomUnavailable, in.RoomNumber)
			}
			// At most one active order per room: the guard condition and
			// the occupancy write are a single statement.
			res := tx.Model(&models.Room{}).
				Where("id = ? AND occupied_by IS NULL", room.ID).
				Updates(map[string]interface{}{
					"status":      models.RoomOccupied,
					"occupied_by": order.ID,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: room %s", ErrRoomBusy, in.RoomNumber)
			}
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:  order.ID,
			ToStatus: models.StatusPending,
			Note:     "order placed",
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order":  order.OrderNumber,
		"table":  order.TableID,
		"room":   order.RoomNumber,
		"total":  order.TotalAmount,
		"dishes": len(order.Items),
	}).Info("order created")

	s.broker.Publish(broker.EventNewOrder, order)
	return order, nil
}

// UpdateStatus moves the order to the requested status. Legality is checked
// against the persisted status, and the write is conditioned on that same
// status still holding, so two racing updates cannot both succeed.
func (s *OrderService) UpdateStatus(orderID uint, to models.OrderStatus, changedBy uint, note string) (*models.Order, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(order, to, changedBy, note)
}

// applyTransition runs the CAS write for order.Status -> to. The room is
// released in the same transaction when the order reaches a terminal state.
func (s *OrderService) applyTransition(order *models.Order, to models.OrderStatus, changedBy uint, note string) (*models.Order, error) {
	from := order.Status
	if err := statemachine.Validate(from, to); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{"status": to}
	if col := statemachine.StampColumn(to); col != "" {
		// Stage timestamps are stamped on first entry only.
		switch col {
		case "preparing_at":
			if order.PreparingAt == nil {
				updates[col] = now
			}
		case "ready_at":
			if order.ReadyAt == nil {
				updates[col] = now
			}
		case "delivered_at":
			if order.DeliveredAt == nil {
				updates[col] = now
			}
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d is no longer %s", ErrStatusConflict, order.ID, from)
		}

		if to.IsTerminal() && order.RoomNumber != "" {
			res := tx.Model(&models.Room{}).
				Where("room_number = ? AND occupied_by = ?", order.RoomNumber, order.ID).
				Updates(map[string]interface{}{
					"status":      models.RoomAvailable,
					"occupied_by": nil,
				})
			if res.Error != nil {
				return res.Error
			}
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  changedBy,
			Note:       note,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Get(order.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order": updated.OrderNumber,
		"from":  from,
		"to":    to,
	}).Info("order status updated")

	s.broker.Publish(broker.EventOrderStatusUpdate, broker.StatusUpdatePayload{
		OrderID:     updated.ID,
		OrderNumber: updated.OrderNumber,
		Status:      updated.Status,
		TableID:     updated.TableID,
		RoomNumber:  updated.RoomNumber,
		Items:       updated.Items,
		TotalAmount: updated.TotalAmount,
	})
	return updated, nil
}

// Get returns one order with its items and history.
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("StatusHistory").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListFilter narrows List results; zero values mean no filtering.
type ListFilter struct {
	Status     models.OrderStatus
	RoomNumber string
	Active     bool // only non-terminal orders
}

// List returns orders newest first.
func (s *OrderService) List(f ListFilter) ([]models.Order, error) {
	query := s.db.Preload("Items")
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.RoomNumber != "" {
		query = query.Where("room_number = ?", f.RoomNumber)
	}
	if f.Active {
		query = query.Where("status NOT IN ?", []models.OrderStatus{
			models.StatusDelivered, models.StatusCancelled,
		})
	}
	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
