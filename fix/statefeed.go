package fix

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Broadcaster mirrors SessionManager state transitions to connected
// operational clients over a read-only WebSocket feed, for an ops
// dashboard without touching market data: it carries session lifecycle
// events only, nothing from the wire, and never subscribes to market
// data over FIX.
//
// Grounded on client/okx/persistent_websocket.go's connection-handling
// shape, inverted from a dialing client to an accepting server: the
// same "one goroutine per connection, best-effort send, never block
// the producer" discipline applies.
type Broadcaster struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan stateEvent
	log     *logrus.Entry
}

type stateEvent struct {
	From      SessionState `json:"from"`
	To        SessionState `json:"to"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewBroadcaster constructs an idle broadcaster. Call ServeHTTP from an
// http.Handler mux to accept ops connections.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:  make(map[*websocket.Conn]chan stateEvent),
		log:      logrus.WithField("component", "fix.statefeed"),
	}
}

// ServeHTTP upgrades the connection and registers it as a broadcast
// target until it disconnects or falls behind (slow clients are
// dropped, never allowed to block OnStateChange).
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.WithError(err).Warn("statefeed upgrade failed")
		return
	}

	ch := make(chan stateEvent, 16)
	b.mu.Lock()
	b.clients[conn] = ch
	b.mu.Unlock()

	go b.writeLoop(conn, ch)
}

func (b *Broadcaster) writeLoop(conn *websocket.Conn, ch chan stateEvent) {
	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	for ev := range ch {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// OnStateChange implements StateListener. It must never block the
// session's state-transition thread, so delivery to each client is
// non-blocking — a slow subscriber is disconnected on its next write
// attempt rather than stalling the gateway.
func (b *Broadcaster) OnStateChange(old, new SessionState) {
	ev := stateEvent{From: old, To: new, Timestamp: time.Now().UTC()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, ch := range b.clients {
		select {
		case ch <- ev:
		default:
			b.log.Warn("statefeed client too slow, dropping")
			close(ch)
			delete(b.clients, conn)
		}
	}
}

// Close disconnects every subscriber.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, ch := range b.clients {
		close(ch)
		conn.Close()
		delete(b.clients, conn)
	}
}
