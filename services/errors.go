package services

import "errors"

var (
	// ErrNotFound covers missing orders, rooms and dishes.
	ErrNotFound = errors.New("record not found")

	// ErrDishUnavailable rejects an entire order when any referenced dish
	// is missing its availability flag or out of stock.
	ErrDishUnavailable = errors.New("dish is not available")

	// ErrRoomBusy rejects order creation against a room that already has
	// an active order.
	ErrRoomBusy = errors.New("room already has an active order")

	// ErrRoomUnavailable rejects order creation against a room taken out
	// of service.
	ErrRoomUnavailable = errors.New("room is not accepting orders")

	// ErrStatusConflict is returned to the loser of a concurrent status
	// update race: the persisted status changed between read and write.
	ErrStatusConflict = errors.New("order status changed concurrently")

	// ErrRoomNotOccupied rejects a manual release of a room that holds no
	// active order.
	ErrRoomNotOccupied = errors.New("room is not occupied")
)
