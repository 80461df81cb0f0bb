package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/xelth-com/eckscan/internal/realtime"
)

// Event is pushed to every connected terminal when stock changes
type Event struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	Action     string `json:"action"`
	OrderID    string `json:"orderId,omitempty"`
	BinCode    string `json:"binCode,omitempty"`
	PacketCode string `json:"packetCode,omitempty"`
	Origin     string `json:"origin,omitempty"`
}

type identify struct {
	client *Client
	id     string
	ack    []byte
}

// Hub maintains the set of connected terminals and broadcasts change events
type Hub struct {
	// Registered clients map: TerminalID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	identify   chan identify
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		identify:   make(chan identify),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.attach(client, client.terminalID)
			h.mu.Unlock()

		case req := <-h.identify:
			h.mu.Lock()
			// a replaced or unregistered client already has its send channel closed
			if cur, ok := h.clients[req.client.terminalID]; !ok || cur != req.client {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, req.client.terminalID)
			h.attach(req.client, req.id)
			req.client.trySend(req.ack)
			h.mu.Unlock()
			log.Printf("📟 Terminal identified: %s", req.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.terminalID]; ok && cur == client {
				delete(h.clients, client.terminalID)
				close(client.send)
				log.Printf("📴 Terminal disconnected: %s", client.terminalID)
			}
			h.mu.Unlock()
		}
	}
}

// attach must be called with h.mu held
func (h *Hub) attach(client *Client, id string) {
	// If a terminal connects again, close the old connection
	if old, ok := h.clients[id]; ok && old != client {
		close(old.send)
	}
	client.terminalID = id
	h.clients[id] = client
}

// enqueue hands a request to the loop unless it has stopped
func enqueue[T any](h *Hub, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.done:
		return false
	}
}

// Terminals returns the connected terminal IDs
func (h *Hub) Terminals() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// SendToTerminal sends a message to a specific terminal
func (h *Hub) SendToTerminal(terminalID string, message interface{}) bool {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[terminalID]
	if !ok {
		return false
	}
	return client.trySend(jsonMsg)
}

// Broadcast sends a message to every terminal, skipping those whose buffer is full
func (h *Hub) Broadcast(message interface{}) int {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling broadcast: %v", err)
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, c := range h.clients {
		if c.trySend(jsonMsg) {
			sent++
		}
	}
	return sent
}

// Publish implements realtime.Publisher
func (h *Hub) Publish(c realtime.Change) {
	h.Broadcast(Event{
		Type:       c.EventType(),
		ID:         c.PacketCode,
		Action:     c.Action,
		OrderID:    c.OrderID,
		BinCode:    c.BinCode,
		PacketCode: c.PacketCode,
		Origin:     c.Origin,
	})
}

// Forward relays changes from a broker subscription until it closes or ctx ends
func (h *Hub) Forward(ctx context.Context, changes <-chan realtime.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			h.Publish(c)
		}
	}
}
