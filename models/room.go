package models

import "time"

// RoomStatus covers both hotel rooms and restaurant tables
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomReserved    RoomStatus = "reserved"
	RoomMaintenance RoomStatus = "maintenance"
)

type Room struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	RoomNumber string     `json:"room_number" gorm:"uniqueIndex;not null"`
	Name       string     `json:"name"`
	Floor      string     `json:"floor"`
	Capacity   int        `json:"capacity" gorm:"default:4"`
	Status     RoomStatus `json:"status" gorm:"not null;default:'available'"`
	OccupiedBy *uint      `json:"occupied_by"` // active order ID, nil when free
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
