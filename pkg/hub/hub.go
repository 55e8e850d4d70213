package hub

import (
	"encoding/json"
	"sync"

	"github.com/teslashibe/go-depthview/internal/log"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string

	// Replay the latest message to new clients
	replay bool
	latest *Message

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed by Stop
	done     chan struct{}
	stopOnce sync.Once

	// Guards clients for ClientCount
	mu sync.RWMutex

	running bool
}

// New creates a new Hub. With replay set, the last broadcast message is sent
// to every client as soon as it registers.
func New(name string, replay bool) *Hub {
	return &Hub{
		name:       name,
		replay:     replay,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Name returns the hub name.
func (h *Hub) Name() string { return h.name }

// Run starts the hub's main loop. It returns after Stop.
// This should be called in a goroutine
func (h *Hub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()
	logger := log.With("hub", h.name)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			if h.replay && h.latest != nil {
				h.deliver(client, *h.latest)
			}
			logger.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			count := len(h.clients)
			h.mu.Unlock()
			logger.Info("client disconnected", "clients", count)

		case message := <-h.broadcast:
			if h.replay {
				m := message
				h.latest = &m
			}
			h.mu.Lock()
			for client := range h.clients {
				if !h.deliverLocked(client, message) {
					logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) deliver(client *Client, message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(client, message)
}

// deliverLocked queues message for client, dropping the client when its
// buffer is full. Requires h.mu.
func (h *Hub) deliverLocked(client *Client, message Message) bool {
	if !h.clients[client] {
		return true
	}
	select {
	case client.send <- message:
		return true
	default:
		h.remove(client)
		return false
	}
}

// remove closes the client's send channel once. Requires h.mu.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast channel full - drop message
		log.Debug("broadcast channel full, dropping message", "hub", h.name)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data (JPEG frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
