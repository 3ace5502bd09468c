package statemachine

import (
	"errors"
	"fmt"
	"time"

	"table-order-api/models"
)

// ErrInvalidTransition marks a status change that the lifecycle forbids.
// Handlers use it to distinguish lifecycle violations from generic
// validation failures.
var ErrInvalidTransition = errors.New("invalid order status transition")

// allowedNext is the authoritative lifecycle definition: current status to
// the set of statuses it may move to. Delivered and cancelled are terminal.
var allowedNext = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusDelivered},
	models.StatusDelivered: {},
	models.StatusCancelled: {},
}

// ValidNext returns all statuses reachable from the given status.
func ValidNext(status models.OrderStatus) []models.OrderStatus {
	return allowedNext[status]
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range allowedNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Validate checks from -> to and returns a descriptive error on violation.
func Validate(from, to models.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s (valid next: %s)",
		ErrInvalidTransition, from, to, describeValidNext(from))
}

func describeValidNext(status models.OrderStatus) string {
	nexts := allowedNext[status]
	if len(nexts) == 0 {
		return "none, terminal state"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// Apply moves the order to the requested status and stamps the stage
// timestamp on first entry. The caller must persist the order; Apply only
// mutates the in-memory record.
func Apply(o *models.Order, to models.OrderStatus, now time.Time) error {
	if err := Validate(o.Status, to); err != nil {
		return err
	}
	o.Status = to
	switch to {
	case models.StatusPreparing:
		if o.PreparingAt == nil {
			t := now
			o.PreparingAt = &t
		}
	case models.StatusReady:
		if o.ReadyAt == nil {
			t := now
			o.ReadyAt = &t
		}
	case models.StatusDelivered:
		if o.DeliveredAt == nil {
			t := now
			o.DeliveredAt = &t
		}
	}
	return nil
}

// StampColumn returns the orders column to set when entering the given
// status, or "" when the stage carries no timestamp. Used by the
// conditional-update path so the stamp lands in the same write as the
// status change.
func StampColumn(to models.OrderStatus) string {
	switch to {
	case models.StatusPreparing:
		return "preparing_at"
	case models.StatusReady:
		return "ready_at"
	case models.StatusDelivered:
		return "delivered_at"
	}
	return ""
}
