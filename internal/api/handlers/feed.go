package handlers

import (
	"log"
	"net/http"

	"github.com/fitcoach/intake-bot/internal/service"
	ws "github.com/fitcoach/intake-bot/internal/websocket"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type FeedHandler struct {
	hub         *ws.Hub
	authService *service.AuthService
}

func NewFeedHandler(hub *ws.Hub, authService *service.AuthService) *FeedHandler {
	return &FeedHandler{hub: hub, authService: authService}
}

// Handle upgrades an authenticated operator dashboard onto the live feed.
// The token travels as a query parameter since browsers cannot set headers
// on websocket dials.
func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}
	if _, err := h.authService.ValidateToken(token); err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR [feed.Handle] upgrade: %v", err)
		return
	}
	ws.NewClient(h.hub, conn)
}
