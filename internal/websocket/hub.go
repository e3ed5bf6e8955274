package websocket

import (
	"log"
	"sync"
)

// Hub maintains the set of active clients and routes outbound messages.
// Clients are indexed two ways: by user ID for notification delivery and by
// thread scope key for comment snapshot pushes. A client watches at most one
// scope at a time; switching scopes drops the old subscription first.
type Hub struct {
	// Registered clients by user ID
	clients map[string]map[*Client]bool

	// Registered clients by thread scope key
	scopes map[string]map[*Client]bool

	// Outbound messages
	broadcast chan *Message

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Scope subscription changes from clients
	rescope chan *scopeChange

	mu sync.RWMutex
}

type scopeChange struct {
	client   *Client
	scopeKey string
}

// Message represents a WebSocket message
type Message struct {
	UserID   string                 `json:"user_id,omitempty"`
	ScopeKey string                 `json:"scope_key,omitempty"`
	Type     string                 `json:"type"`
	Payload  map[string]interface{} `json:"payload"`
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		scopes:     make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rescope:    make(chan *scopeChange, 64),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			if client.scopeKey != "" {
				h.addToScope(client, client.scopeKey)
			}
			h.mu.Unlock()
			log.Printf("Client registered: UserID=%s, scope=%s", client.UserID, client.scopeKey)

		case client := <-h.unregister:
			h.mu.Lock()
			h.dropClient(client)
			h.mu.Unlock()
			log.Printf("Client unregistered: UserID=%s", client.UserID)

		case change := <-h.rescope:
			h.mu.Lock()
			h.removeFromScope(change.client)
			if change.scopeKey != "" {
				h.addToScope(change.client, change.scopeKey)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			// Write lock: deliver may evict slow clients.
			h.mu.Lock()
			switch {
			case message.ScopeKey != "":
				h.deliver(h.scopes[message.ScopeKey], message)
			case message.UserID != "":
				h.deliver(h.clients[message.UserID], message)
			default:
				for _, clients := range h.clients {
					h.deliver(clients, message)
				}
			}
			h.mu.Unlock()
		}
	}
}

// addToScope and removeFromScope require h.mu to be held.
func (h *Hub) addToScope(client *Client, scopeKey string) {
	client.scopeKey = scopeKey
	if h.scopes[scopeKey] == nil {
		h.scopes[scopeKey] = make(map[*Client]bool)
	}
	h.scopes[scopeKey][client] = true
}

func (h *Hub) removeFromScope(client *Client) {
	if client.scopeKey == "" {
		return
	}
	if clients, ok := h.scopes[client.scopeKey]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.scopes, client.scopeKey)
		}
	}
	client.scopeKey = ""
}

// dropClient removes a client from both indexes and closes its send
// channel exactly once; requires h.mu to be held for writing. A client
// already dropped (evicted by deliver and later unregistered by its
// readPump) is a no-op.
func (h *Hub) dropClient(client *Client) {
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
	h.removeFromScope(client)
	close(client.send)
}

// deliver requires h.mu to be held for writing: clients whose send
// buffer is full are dropped from both indexes.
func (h *Hub) deliver(clients map[*Client]bool, message *Message) {
	for client := range clients {
		select {
		case client.send <- message:
		default:
			h.dropClient(client)
		}
	}
}

// BroadcastToUser sends a message to every connection of one user
func (h *Hub) BroadcastToUser(userID string, payload map[string]interface{}) {
	message := &Message{
		UserID:  userID,
		Type:    "notification",
		Payload: payload,
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Broadcast channel full, dropping message for user: %s", userID)
	}
}

// BroadcastToScope sends a message to every client watching a thread scope
func (h *Hub) BroadcastToScope(scopeKey string, payload map[string]interface{}) {
	message := &Message{
		ScopeKey: scopeKey,
		Type:     "thread",
		Payload:  payload,
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Broadcast channel full, dropping message for scope: %s", scopeKey)
	}
}

// GetClientCount returns the number of connected clients for a user
func (h *Hub) GetClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[userID]; ok {
		return len(clients)
	}
	return 0
}

// GetScopeWatcherCount returns the number of clients watching a scope
func (h *Hub) GetScopeWatcherCount(scopeKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.scopes[scopeKey]; ok {
		return len(clients)
	}
	return 0
}
