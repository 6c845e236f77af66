package realtime

import (
	"sync"

	"canteen-be/internal/logger"
	"canteen-be/internal/menu"
	"canteen-be/internal/order"

	"go.uber.org/zap"
)

var (
	_ menu.Notifier  = (*Hub)(nil)
	_ order.Notifier = (*Hub)(nil)
)

// Hub keeps the set of connected clients and routes events to them.
// Broadcast events reach every client; room-addressed events reach only
// the clients that joined the room.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *message

	mu   sync.RWMutex
	quit chan struct{}
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan *message, 256),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run owns the client and room maps. It must be started exactly once,
// usually as a goroutine from main.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.L().Info("websocket client connected",
				zap.String("user_id", client.userID),
				zap.String("role", client.role))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Shutdown disconnects every client and stops the run loop.
func (h *Hub) Shutdown() {
	close(h.quit)
	<-h.done
}

// joinRoom adds a client to a room. Admin-only rooms are enforced at
// the client message layer; the hub trusts its callers.
func (h *Hub) joinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
}

func (h *Hub) leaveRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[room]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) deliver(msg *message) {
	if msg == nil {
		return
	}

	h.mu.RLock()
	var targets []*Client
	if msg.room == "" {
		targets = make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		targets = make([]*Client, 0, len(h.rooms[msg.room]))
		for c := range h.rooms[msg.room] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var slow []*Client
	for _, c := range targets {
		select {
		case c.send <- msg.data:
		default:
			slow = append(slow, c)
		}
	}

	// A client whose send buffer is full is not keeping up; drop it
	// rather than stall delivery for everyone else.
	for _, c := range slow {
		logger.L().Warn("dropping slow websocket client",
			zap.String("user_id", c.userID))
		c.conn.Close()
		select {
		case h.unregister <- c:
		default:
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room, clients := range h.rooms {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
		close(c.send)
	}
}

func (h *Hub) publish(msg *message) {
	if msg == nil {
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.quit:
	}
}

// PublishStockDelta tells every client an item's remaining count moved.
func (h *Hub) PublishStockDelta(itemID string, remaining int) {
	h.publish(encode("", EventFoodCountUpdated, StockUpdate{
		FoodItemID:     itemID,
		RemainingCount: remaining,
	}))
}

// PublishItemUpdated tells every client an item was created or edited.
func (h *Hub) PublishItemUpdated(item *menu.Item) {
	h.publish(encode("", EventFoodItemUpdated, item))
}

// PublishNewOrder tells the management room a new order was placed.
func (h *Hub) PublishNewOrder(o *order.Order) {
	h.publish(encode(RoomManagement, EventNewOrder, o))
}

// PublishOrderFulfilled tells every client an order was picked up.
func (h *Hub) PublishOrderFulfilled(orderID string) {
	h.publish(encode("", EventOrderFulfilled, FulfilledOrder{OrderID: orderID}))
}
