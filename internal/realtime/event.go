// Package realtime fans domain events out to connected websocket
// clients. The Hub satisfies the Notifier interfaces declared by the
// menu and order packages.
package realtime

import (
	"encoding/json"

	"canteen-be/internal/logger"

	"go.uber.org/zap"
)

// Wire event names. Frontends subscribe to these verbatim.
const (
	EventFoodCountUpdated = "food-count-updated"
	EventNewOrder         = "new-order"
	EventOrderFulfilled   = "order-fulfilled"
	EventFoodItemUpdated  = "food-item-updated"
)

// RoomManagement receives staff-only events such as new orders. Only
// admin connections may join it.
const RoomManagement = "management"

// Envelope is the wire format for every outbound event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// StockUpdate is the payload of a food-count-updated event.
type StockUpdate struct {
	FoodItemID     string `json:"foodItemId"`
	RemainingCount int    `json:"remainingCount"`
}

// FulfilledOrder is the payload of an order-fulfilled event.
type FulfilledOrder struct {
	OrderID string `json:"orderId"`
}

// message is a pre-encoded event addressed to a room. An empty room
// means every connected client.
type message struct {
	room string
	data []byte
}

func encode(room, event string, data any) *message {
	raw, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		logger.L().Error("failed to encode realtime event",
			zap.String("event", event), zap.Error(err))
		return nil
	}
	return &message{room: room, data: raw}
}
