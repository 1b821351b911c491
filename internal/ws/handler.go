package ws

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mahmoudev/blog-service/internal/models"
)

// Authenticator validates a session token and resolves its owner. Defined
// here rather than importing the service package to keep the dependency
// direction service → ws.
type Authenticator interface {
	Authenticate(rawToken string) (*models.User, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests to websocket subscriptions.
type Handler struct {
	hub  *Hub
	auth Authenticator
}

// NewHandler creates the websocket connection handler.
func NewHandler(hub *Hub, auth Authenticator) *Handler {
	return &Handler{hub: hub, auth: auth}
}

// HandleConnection authenticates the caller and registers the connection as
// a subscriber. Browsers cannot set headers on websocket requests, so the
// token travels as a query parameter: GET /ws?token=<jwt>.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if !h.hub.Running() {
		// Registering against an idle hub would hang forever; fail loudly.
		http.Error(w, "realtime hub not started", http.StatusServiceUnavailable)
		return
	}

	user, err := h.auth.Authenticate(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warnf("ws: upgrade failed for user %s: %v", user.ID, err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: user.ID,
		send:   make(chan []byte, sendBufferSize),
	}
	h.hub.register <- client

	go client.WritePump()
	client.ReadPump() // blocks until the connection closes
}
