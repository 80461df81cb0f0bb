package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Change is one database change notification.
// Listeners never merge changes; they only use them as a cue to reload.
type Change struct {
	Table      string `json:"table"`
	Action     string `json:"action"` // outwarded, allocated, undone, binned, returned, scrapped, insert, update...
	OrderID    string `json:"order_id,omitempty"`
	BinCode    string `json:"bin_code,omitempty"`
	PacketCode string `json:"packet_code,omitempty"`
	Origin     string `json:"origin,omitempty"` // terminal that caused it, when known
}

// EventType is the name terminals see, e.g. "packet_outwarded"
func (c Change) EventType() string {
	subject := c.Table
	if subject == "" {
		subject = "packet"
	}
	return subject + "_" + c.Action
}

// DecodeChange parses a NOTIFY payload
func DecodeChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("invalid change payload: %w", err)
	}
	if c.Action == "" {
		return Change{}, fmt.Errorf("invalid change payload: missing action")
	}
	return c, nil
}

// Publisher accepts change notifications
type Publisher interface {
	Publish(c Change)
}

// Broker fans changes out to subscribers. A slow subscriber loses changes instead of stalling the feed.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan Change
	nextID int
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Change)}
}

// Subscribe returns a buffered channel of changes and a function to stop receiving them
func (b *Broker) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Change, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers c to every subscriber without blocking
func (b *Broker) Publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- c:
		default:
			log.Printf("⚠️ Realtime: subscriber %d is behind, dropped %s", id, c.EventType())
		}
	}
}
