// Package websocket streams completed-submission reports to connected
// operator dashboards.
package websocket

import (
	"context"
	"log"
)

// Hub fans reports out to every connected feed client. Slow clients are
// dropped rather than allowed to block the rest.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan string
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan string, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set. It should be called in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("INFO [websocket.Run] feed client connected, total=%d", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case text := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- text:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast implements notify.Broadcaster.
func (h *Hub) Broadcast(text string) {
	select {
	case h.broadcast <- text:
	default:
		log.Printf("WARN [websocket.Broadcast] feed backlog full, dropping report")
	}
}
