package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"encoding/json"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Client represents a connected WebSocket client
type Client struct {
	conn     *websocket.Conn
	playerID string
	gameID   string
	send     chan []byte
}

// Hub maintains the set of active clients
type Hub struct {
	clients   map[string]*Client            // playerID -> Client
	gameRooms map[string]map[string]*Client // gameID -> playerID -> Client
	mu        sync.RWMutex
}

// GameHub is the process-wide hub.
var GameHub = NewHub()

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		gameRooms: make(map[string]map[string]*Client),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A reconnect replaces the previous connection for the same player.
	if old, exists := h.clients[c.playerID]; exists {
		close(old.send)
	}
	h.clients[c.playerID] = c
	if c.gameID != "" {
		if _, ok := h.gameRooms[c.gameID]; !ok {
			h.gameRooms[c.gameID] = make(map[string]*Client)
		}
		h.gameRooms[c.gameID][c.playerID] = c
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, exists := h.clients[c.playerID]; exists && cur == c {
		delete(h.clients, c.playerID)
		close(c.send)
	}
	if c.gameID != "" {
		if room, ok := h.gameRooms[c.gameID]; ok {
			if cur, exists := room[c.playerID]; exists && cur == c {
				delete(room, c.playerID)
			}
			if len(room) == 0 {
				delete(h.gameRooms, c.gameID)
			}
		}
	}
}

// BroadcastToGame sends a message to all players in a game room.
func (h *Hub) BroadcastToGame(gameID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, exists := h.gameRooms[gameID]; exists {
		for _, client := range room {
			select {
			case client.send <- data:
			default:
				log.Printf("[WS] send buffer full for player %s in game %s, dropping message", client.playerID, gameID)
			}
		}
	}
}

// SendToPlayer sends a message to a specific player.
func (h *Hub) SendToPlayer(playerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[playerID]; exists {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] SendToPlayer dropped message for player %s (buffer full)", playerID)
		}
	}
}

// Broadcast sends a message to every connected client (queue-size updates).
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// ServeWS upgrades an HTTP request and registers the client. The player id is
// required; a game id subscribes the client to that game's room.
func ServeWS(w http.ResponseWriter, r *http.Request, playerID, gameID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed for player %s: %v", playerID, err)
		return
	}

	client := &Client{
		conn:     conn,
		playerID: playerID,
		gameID:   gameID,
		send:     make(chan []byte, 64),
	}
	GameHub.register(client)

	go client.writePump()
	go client.readPump()
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed — connection is being replaced or cleaned up.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for player %s: %v", c.playerID, err)
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

// readPump drains incoming frames so pings/pongs flow; clients only listen.
func (c *Client) readPump() {
	defer func() {
		GameHub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
