// Package websocket provides a lightweight wake channel for browser
// clients: subscribers pick mailbox scopes and receive change hints
// fanned out from the shared notification registry.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeUpdate      MessageType = "update"
	MessageTypeError       MessageType = "error"
)

// WSMessage represents a WebSocket message. Subscribe requests name a
// user and a mailbox path; path "*" selects every mailbox of the user.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	UserID  uint            `json:"user_id,omitempty"`
	Path    string          `json:"path,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Hub maintains the set of active clients and their scope
// subscriptions. Scopes are routing keys; the hub holds one registry
// registration per distinct key, shared by all subscribed clients.
type Hub struct {
	registry *pubsub.Registry

	// Registered clients
	clients map[*Client]bool

	// Routing key -> subscribed clients
	subscriptions map[string]map[*Client]bool

	// Routing key -> shared registry registration
	registrations map[string]*pubsub.Registration

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest
	broadcast   chan *broadcastMessage

	mu sync.RWMutex

	logger *slog.Logger
}

type subscriptionRequest struct {
	client *Client
	userID uint
	path   string
}

type broadcastMessage struct {
	key     string
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(registry *pubsub.Registry, logger *slog.Logger) *Hub {
	return &Hub{
		registry:      registry,
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		registrations: make(map[string]*pubsub.Registration),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *subscriptionRequest),
		unsubscribe:   make(chan *subscriptionRequest),
		broadcast:     make(chan *broadcastMessage, 256),
		logger:        logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered")
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for key, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						h.dropScope(key)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered")
			}

		case req := <-h.subscribe:
			key := pubsub.RoutingKey(req.userID, req.path)
			h.mu.Lock()
			if h.subscriptions[key] == nil {
				h.subscriptions[key] = make(map[*Client]bool)
				h.registrations[key] = h.registry.Register(key, h.makeCallback(key))
			}
			h.subscriptions[key][req.client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client subscribed",
					slog.Uint64("user_id", uint64(req.userID)),
					slog.String("path", req.path))
			}

		case req := <-h.unsubscribe:
			key := pubsub.RoutingKey(req.userID, req.path)
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[key]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					h.dropScope(key)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			subscribers := h.subscriptions[msg.key]
			for client := range subscribers {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// dropScope removes a scope and its registry registration; callers must
// hold the write lock
func (h *Hub) dropScope(key string) {
	delete(h.subscriptions, key)
	if reg, ok := h.registrations[key]; ok {
		reg.Close()
		delete(h.registrations, key)
	}
}

// makeCallback builds the registry callback for a scope. It runs on
// registry goroutines and only queues onto the buffered broadcast
// channel, dropping when the hub cannot keep up.
func (h *Hub) makeCallback(key string) pubsub.Handler {
	return func(payload []byte) {
		msg := WSMessage{Type: MessageTypeUpdate}
		if len(payload) > 0 {
			msg.Payload = payload
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return
		}

		select {
		case h.broadcast <- &broadcastMessage{key: key, message: data}:
		default:
			if h.logger != nil {
				h.logger.Warn("hub broadcast queue full, dropping update")
			}
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to a mailbox scope
func (h *Hub) Subscribe(client *Client, userID uint, path string) {
	h.subscribe <- &subscriptionRequest{client: client, userID: userID, path: path}
}

// Unsubscribe removes a client's mailbox scope subscription
func (h *Hub) Unsubscribe(client *Client, userID uint, path string) {
	h.unsubscribe <- &subscriptionRequest{client: client, userID: userID, path: path}
}
