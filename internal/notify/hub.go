package notify

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub tracks the websocket connections of logged-in users so freshly
// inserted notifications can be pushed without polling. A user may hold
// several connections (admin SPA plus supplier portal tabs).
type Hub struct {
	// userID -> connected clients
	clients map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			log.Printf("Notification stream connected: user %d", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.UserID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.send)
					if len(set) == 0 {
						delete(h.clients, client.UserID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("Notification stream disconnected: user %d", client.UserID)
		}
	}
}

// SendToUser pushes a message to every open connection of a user.
// Returns false when the user has no live connection.
func (h *Hub) SendToUser(userID uint, message interface{}) bool {
	h.mu.RLock()
	set, ok := h.clients[userID]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if !ok || len(clients) == 0 {
		return false
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling notification push: %v", err)
		return false
	}

	delivered := false
	for _, client := range clients {
		select {
		case client.send <- jsonMsg:
			delivered = true
		default:
			// Buffer full or client dead; reader teardown will unregister it
		}
	}
	return delivered
}
