package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
)

// WebSocketBroadcaster pushes finished analysis results to connected
// dashboard clients. The customer-level drill-down is stripped from the
// broadcast payload; clients fetch it over HTTP when they need it.
type WebSocketBroadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

func NewWebSocketBroadcaster() *WebSocketBroadcaster {
	return &WebSocketBroadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (b *WebSocketBroadcaster) BroadcastResult(result *model.AnalysisResult) {
	if result == nil {
		return
	}
	payload := *result
	payload.Movements = nil

	b.mu.Lock()
	defer b.mu.Unlock()
	msg, err := json.Marshal(&payload)
	if err != nil {
		log.Printf("failed to marshal analysis result: %v", err)
		return
	}
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

// Handler returns an http.HandlerFunc to accept websocket connections.
func (b *WebSocketBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()
		// Read loop keeps the connection alive and reaps closed clients.
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}
