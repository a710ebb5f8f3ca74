package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// Per-client subscriptions: key = "series:{country}:{indicator}"
	subMu sync.RWMutex
	subs  map[string]bool
}

// subscribeMsg is the client-to-server control message.
type subscribeMsg struct {
	Type      string `json:"type"` // "SUBSCRIBE" or "UNSUBSCRIBE"
	Country   string `json:"country"`
	Indicator string `json:"indicator"`
}

// ChannelName builds the fan-out channel for a (country, indicator) pair.
func ChannelName(country, indicator string) string {
	return fmt.Sprintf("series:%s:%s", strings.ToUpper(country), indicator)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			// Write coalescing: use NextWriter to batch queued messages
			// into a single WebSocket frame with newline separators
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			// Drain any queued messages into the same write
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var ctrl subscribeMsg
		if json.Unmarshal(msg, &ctrl) != nil {
			continue
		}

		switch ctrl.Type {
		case "SUBSCRIBE":
			if ctrl.Country == "" || ctrl.Indicator == "" {
				c.sendError("country and indicator are required")
				continue
			}
			c.handleSubscribe(ctrl)

		case "UNSUBSCRIBE":
			ch := ChannelName(ctrl.Country, ctrl.Indicator)
			c.subMu.Lock()
			delete(c.subs, ch)
			c.subMu.Unlock()
			log.Printf("[gateway] client unsubscribed: %s", ch)
		}
	}
}

// handleSubscribe records the subscription and replays the latest
// envelope for the channel so the client renders immediately instead
// of waiting for the next refresh cycle.
func (c *Client) handleSubscribe(msg subscribeMsg) {
	ch := ChannelName(msg.Country, msg.Indicator)

	c.subMu.Lock()
	c.subs[ch] = true
	c.subMu.Unlock()

	log.Printf("[gateway] client subscribed: %s", ch)

	if env, ok := c.hub.Latest(ch); ok {
		select {
		case c.send <- env:
		default:
		}
	}
}

func (c *Client) sendError(reason string) {
	env, _ := json.Marshal(map[string]string{"type": "error", "error": reason})
	select {
	case c.send <- env:
	default:
	}
}

// subscribed reports whether this client watches the channel.
func (c *Client) subscribed(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return c.subs[channel]
}

// subscriptions returns a snapshot of the client's channels.
func (c *Client) subscriptions() []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	out := make([]string, 0, len(c.subs))
	for ch := range c.subs {
		out = append(out, ch)
	}
	return out
}
