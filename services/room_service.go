package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"table-order-api/models"
)

// RoomService manages rooms/tables and their occupancy.
type RoomService struct {
	db            *gorm.DB
	log           *logrus.Logger
	orderPageBase string
}

func NewRoomService(db *gorm.DB, log *logrus.Logger, orderPageBase string) *RoomService {
	return &RoomService{db: db, log: log, orderPageBase: orderPageBase}
}

// Get returns one room by its number.
func (s *RoomService) Get(roomNumber string) (*models.Room, error) {
	var room models.Room
	err := s.db.Where("room_number = ?", roomNumber).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomNumber)
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// List returns all rooms ordered by room number, optionally filtered by
// status for the occupancy board.
func (s *RoomService) List(status models.RoomStatus) ([]models.Room, error) {
	query := s.db.Order("room_number")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rooms []models.Room
	if err := query.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// Release clears a room's occupancy by staff action. It exists for manual
// recovery; the normal path releases the room automatically when its order
// reaches a terminal state.
func (s *RoomService) Release(roomNumber string) (*models.Room, error) {
	room, err := s.Get(roomNumber)
	if err != nil {
		return nil, err
	}
	res := s.db.Model(&models.Room{}).
		Where("id = ? AND occupied_by IS NOT NULL", room.ID).
		Updates(map[string]interface{}{
			"status":      models.RoomAvailable,
			"occupied_by": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: room %s", ErrRoomNotOccupied, roomNumber)
	}
	s.log.WithField("room", roomNumber).Info("room released by staff")
	return s.Get(roomNumber)
}

// QRCode renders the guest ordering link for a room as a PNG.
func (s *RoomService) QRCode(roomNumber string, size int) ([]byte, error) {
	if _, err := s.Get(roomNumber); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	url := fmt.Sprintf("%s?room=%s", s.orderPageBase, roomNumber)
	return qrcode.Encode(url, qrcode.Medium, size)
}

// CheckOccupancy reports rooms whose occupancy reference points at an order
// that already reached a terminal state. Such rooms indicate a crash between
// the order write and the room write and are surfaced for staff attention.
func (s *RoomService) CheckOccupancy() ([]models.Room, error) {
	var stale []models.Room
	err := s.db.
		Joins("JOIN orders ON orders.id = rooms.occupied_by").
		Where("rooms.occupied_by IS NOT NULL AND orders.status IN ?", []models.OrderStatus{
			models.StatusDelivered, models.StatusCancelled,
		}).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}
	return stale, nil
}
