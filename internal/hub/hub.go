package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultKeepAlive is the interval between keep-alive comments on idle streams
const DefaultKeepAlive = 30 * time.Second

// Named is implemented by events that carry their own SSE event name
type Named interface {
	EventName() string
}

// Scoped is implemented by events that concern a single design.
// An empty scope reaches every client.
type Scoped interface {
	Scope() string
}

// Client is one SSE stream, optionally restricted to one design
type Client struct {
	id     string
	design string
	events chan []byte
}

// wants reports whether an event with the given scope goes to this client
func (c *Client) wants(scope string) bool {
	return c.design == "" || scope == "" || c.design == scope
}

type message struct {
	scope string
	data  []byte
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	keepAlive  time.Duration
}

// New creates a new Hub
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		keepAlive:  DefaultKeepAlive,
	}
}

// SetKeepAlive changes the keep-alive interval; call before serving
func (h *Hub) SetKeepAlive(d time.Duration) {
	if d > 0 {
		h.keepAlive = d
	}
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.events)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			if client.design != "" {
				log.Printf("SSE client connected: %s for design %s (total: %d)", client.id, client.design, total)
			} else {
				log.Printf("SSE client connected: %s (total: %d)", client.id, total)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("SSE client disconnected: %s (total: %d)", client.id, total)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.wants(msg.scope) {
					continue
				}
				select {
				case client.events <- msg.data:
				default:
					log.Printf("SSE client %s is slow, dropping message", client.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// encode renders one SSE message, naming it when the event supports it
func encode(event interface{}) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	if named, ok := event.(Named); ok && named.EventName() != "" {
		return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", named.EventName(), data)), nil
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data)), nil
}

// Broadcast sends an event to every client interested in its scope.
// Encoding happens here so a bad event never reaches the loop.
func (h *Hub) Broadcast(event interface{}) {
	data, err := encode(event)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}

	msg := message{data: data}
	if scoped, ok := event.(Scoped); ok {
		msg.scope = scoped.Scope()
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Println("Broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP streams events to one client. ?design=<id> limits the stream
// to that design's events plus unscoped ones.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := &Client{
		id:     uuid.NewString(),
		design: r.URL.Query().Get("design"),
		events: make(chan []byte, 64),
	}

	select {
	case h.register <- client:
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
