package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"devdash/internal/metrics"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients and fan-out of refreshed series.
// Channels are named "series:{country}:{indicator}"; the hub remembers
// the latest envelope per channel so new clients get an immediate
// snapshot of everything they subscribe to.
type Hub struct {
	m *metrics.Metrics

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string][]byte
}

// NewHub creates a Hub. m may be nil (tests).
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		m:       m,
		clients: make(map[*Client]bool),
		latest:  make(map[string][]byte),
	}
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
		subs: make(map[string]bool),
	}

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	if h.m != nil {
		h.m.WSClients.Set(float64(count))
	}

	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)
	if h.m != nil {
		h.m.WSClients.Set(float64(count))
	}
}

// Broadcast wraps data in an envelope and fans it out to every client
// subscribed to the channel. Slow clients are skipped, not blocked on.
func (h *Hub) Broadcast(channel string, data json.RawMessage) {
	envelope, _ := json.Marshal(map[string]interface{}{
		"channel": channel,
		"data":    data,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
	})

	h.mu.Lock()
	h.latest[channel] = envelope
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.subscribed(channel) {
			continue
		}
		select {
		case client.send <- envelope:
			if h.m != nil {
				h.m.RefreshPushes.Inc()
			}
		default:
			// client buffer full; it catches up from latest on resubscribe
		}
	}
}

// Latest returns the last envelope broadcast on a channel, if any.
func (h *Hub) Latest(channel string) ([]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	env, ok := h.latest[channel]
	return env, ok
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WatchedChannels returns the union of all client subscriptions. The
// refresher re-fetches exactly this set each interval.
func (h *Hub) WatchedChannels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]bool)
	var channels []string
	for client := range h.clients {
		for _, ch := range client.subscriptions() {
			if !seen[ch] {
				seen[ch] = true
				channels = append(channels, ch)
			}
		}
	}
	return channels
}
