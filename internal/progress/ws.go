// Package progress streams orchestrator events to websocket clients — the
// (external) TUI collaborator this package leaves unspecified beyond
// "progress callbacks fired synchronously... must not block". Notifier
// buffers events per client and drops new events for a client whose buffer
// is full rather than stall the orchestrator goroutine that fired them.
package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// eventBufferSize bounds how many unsent events a slow client can fall
// behind by before further events for it are dropped.
const eventBufferSize = 64

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Notifier fans out progress events to every connected websocket client.
// Safe for concurrent use; Send is the fire-and-forget entry point meant to
// be wired directly as an orchestrator.Notify.
type Notifier struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	ch   chan []byte
}

// NewNotifier builds an empty Notifier ready to accept websocket upgrades
// and events.
func NewNotifier() *Notifier {
	return &Notifier{clients: make(map[*client]struct{})}
}

// ServeHTTP upgrades the request to a websocket connection and registers it
// to receive every subsequent Send call until the connection closes.
func (n *Notifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("warning: progress websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, ch: make(chan []byte, eventBufferSize)}
	n.mu.Lock()
	n.clients[c] = struct{}{}
	n.mu.Unlock()

	go n.writeLoop(c)
}

func (n *Notifier) writeLoop(c *client) {
	defer func() {
		n.mu.Lock()
		delete(n.clients, c)
		n.mu.Unlock()
		c.conn.Close()
	}()

	for payload := range c.ch {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// Send marshals v as JSON and enqueues it to every connected client. It
// never blocks on a slow client: a full buffer drops the event for that
// client rather than stall the caller (intended to be called synchronously
// from worker-completion code, fire-and-forget).
func (n *Notifier) Send(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("warning: progress event marshal failed: %v", err)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for c := range n.clients {
		select {
		case c.ch <- payload:
		default:
			// buffer full: drop rather than block the sender
		}
	}
}

// Close shuts down every connected client's write loop.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for c := range n.clients {
		close(c.ch)
		delete(n.clients, c)
	}
}
