package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Hub owns the subscriber registry. It is constructed once in main and
// injected wherever broadcasts are needed; there is no package-level
// singleton. Run starts the registration loop and refuses to start twice.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// seq numbers outbound events in the order broadcasts are issued.
	seq     atomic.Int64
	running atomic.Bool

	log *logrus.Logger
}

// NewHub creates an idle hub. Run must be called before clients can connect.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run is the hub's event loop, started as `go hub.Run()`. Starting a second
// loop over the same registry is a wiring bug, so a second call panics
// instead of silently racing the first.
func (h *Hub) Run() {
	if !h.running.CompareAndSwap(false, true) {
		panic("ws: hub already running")
	}
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Running reports whether Run has been called.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// BroadcastToAll sends the event to every connected subscriber. Slow
// subscribers whose send buffer is full are disconnected rather than allowed
// to block the fan-out.
func (h *Hub) BroadcastToAll(event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Errorf("ws: failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.log.Debugf("ws: client connected user=%s subscribers=%d", client.userID, len(h.clients))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.log.Debugf("ws: client disconnected user=%s subscribers=%d", client.userID, len(h.clients))
	}
}
