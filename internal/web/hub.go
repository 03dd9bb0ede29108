// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
)

const (
	clientBuffer = 64
	writeWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the shell is served on the local network only
	},
}

// Event is pushed to every browser for each decoded message.
type Event struct {
	Type string            `json:"type"` // sample, status, error
	Data telemetry.Message `json:"data"`
}

// Input is a pointer gesture sent by a browser.
type Input struct {
	Action string  `json:"action"` // drag, scroll
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
}

// Controller applies camera gestures.
type Controller interface {
	Drag(ctx context.Context, dx, dy float64) error
	Scroll(ctx context.Context, delta float64) error
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans decoded messages out to websocket clients. A slow client loses
// events instead of stalling the station loop.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	control Controller
	dropped atomic.Uint64
}

// NewHub returns a hub with no clients.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

func eventType(msg telemetry.Message) string {
	switch msg.(type) {
	case telemetry.Status:
		return "status"
	case telemetry.Error:
		return "error"
	default:
		return "sample"
	}
}

// Publish queues msg for every client.
func (h *Hub) Publish(msg telemetry.Message) {
	b, err := json.Marshal(Event{Type: eventType(msg), Data: msg})
	if err != nil {
		log.Printf("web: encode event: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many events were discarded for slow clients.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// ServeHTTP upgrades the request and serves the client until it goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Printf("web: client %s connected", c.id)

	go h.writeLoop(c)
	h.readLoop(r.Context(), c)

	h.mu.Lock()
	delete(h.clients, c.id)
	close(c.send)
	h.mu.Unlock()
	log.Printf("web: client %s disconnected", c.id)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Printf("web: client %s write error: %v", c.id, err)
			return
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	for {
		var in Input
		if err := c.conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("web: client %s read error: %v", c.id, err)
			}
			return
		}
		if err := h.apply(ctx, in); err != nil {
			log.Printf("web: client %s %s: %v", c.id, in.Action, err)
		}
	}
}

func (h *Hub) apply(ctx context.Context, in Input) error {
	if h.control == nil {
		return nil
	}
	switch in.Action {
	case "drag":
		return h.control.Drag(ctx, in.DX, in.DY)
	case "scroll":
		return h.control.Scroll(ctx, in.Delta)
	}
	return nil
}
