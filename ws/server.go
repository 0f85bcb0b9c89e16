package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"quantumLottoServer/config"
	"quantumLottoServer/logger"
	"quantumLottoServer/lottery"
	"quantumLottoServer/state"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ClientConnection represents a connected feed subscriber
type ClientConnection struct {
	ID         string
	Conn       *websocket.Conn
	writeMutex sync.Mutex // Protects websocket writes
	Send       chan []byte
}

// writeJSON safely writes JSON to the websocket with mutex protection
func (c *ClientConnection) writeJSON(v interface{}) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	return c.Conn.WriteJSON(v)
}

var (
	// All connected clients
	clients      = make(map[*ClientConnection]bool)
	clientsMutex sync.RWMutex

	// Feed event channel and client lifecycle channels
	feedBroadcast    = make(chan interface{}, 100)
	clientRegister   = make(chan *ClientConnection)
	clientUnregister = make(chan *ClientConnection)

	// Client ID counter
	clientIDCounter int64

	// Shared draw state for hello snapshots
	globalState      *state.GlobalState
	globalStateMutex sync.RWMutex
)

// SetGlobalState wires the shared draw state into the feed
func SetGlobalState(gs *state.GlobalState) {
	globalStateMutex.Lock()
	defer globalStateMutex.Unlock()
	globalState = gs
	logger.Info("✅ Draw state wired into WebSocket feed")
}

// ClientMessage is a message from a feed subscriber
type ClientMessage struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

func init() {
	// Start the feed event hub
	go runEventHub()
}

// runEventHub is the central message dispatcher
func runEventHub() {
	logger.Info("🚀 Draw feed hub started")

	for {
		select {
		case client := <-clientRegister:
			clientsMutex.Lock()
			clients[client] = true
			total := len(clients)
			clientsMutex.Unlock()
			logger.Infof("✅ Client registered: %s (Total: %d)", client.ID, total)

		case client := <-clientUnregister:
			clientsMutex.Lock()
			if _, ok := clients[client]; ok {
				delete(clients, client)
				close(client.Send)
			}
			total := len(clients)
			clientsMutex.Unlock()
			logger.Infof("👋 Client unregistered: %s (Total: %d)", client.ID, total)

		case message := <-feedBroadcast:
			broadcastToClients(message)
		}
	}
}

// broadcastToClients sends a message to every connected subscriber
func broadcastToClients(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("❌ Failed to marshal feed message: %v", err)
		return
	}

	clientsMutex.RLock()
	defer clientsMutex.RUnlock()

	for client := range clients {
		select {
		case client.Send <- data:
		default:
			// Client's send channel is full, skip
			logger.Warnf("⚠️  Client %s send buffer full, skipping message", client.ID)
		}
	}
}

// push queues a message on the feed without blocking the caller
func push(message interface{}) {
	select {
	case feedBroadcast <- message:
	default:
		// Channel full, skip this broadcast
		logger.Warn("⚠️  Feed channel full, dropping broadcast")
	}
}

// BroadcastPhase publishes a draw lifecycle transition
func BroadcastPhase(snapshot state.DrawSnapshot) {
	push(map[string]interface{}{
		"type": "phase",
		"data": snapshot,
	})
}

// BroadcastDrawResult publishes a completed draw to all subscribers
func BroadcastDrawResult(record *lottery.DrawRecord) {
	push(map[string]interface{}{
		"type": "draw_result",
		"data": record,
	})
}

// ClientCount returns the number of connected subscribers
func ClientCount() int {
	clientsMutex.RLock()
	defer clientsMutex.RUnlock()
	return len(clients)
}

// HandleWS is the draw feed WebSocket endpoint
func HandleWS(w http.ResponseWriter, r *http.Request) {
	logger.Info("📥 WebSocket connection attempt from: " + r.RemoteAddr)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	// Create client
	client := &ClientConnection{
		ID:   generateClientID(),
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	// Register client
	clientRegister <- client

	globalStateMutex.RLock()
	gs := globalState
	globalStateMutex.RUnlock()
	if gs != nil {
		atomic.AddInt64(&gs.TotalConnections, 1)
	}

	// Send current state so late joiners can sync immediately
	client.sendHello(gs)

	// Start goroutines for this client
	go client.writePump()
	go client.readPump()
}

// sendHello sends the current draw state and rolling history on connect
func (c *ClientConnection) sendHello(gs *state.GlobalState) {
	hello := map[string]interface{}{
		"type": "hello",
		"data": map[string]interface{}{
			"connectedClients": ClientCount(),
		},
	}

	if gs != nil {
		data := hello["data"].(map[string]interface{})
		data["draw"] = gs.Draw.Snapshot()
		data["history"] = gs.Draw.GetHistory()
	}

	if err := c.writeJSON(hello); err != nil {
		logger.Warnf("⚠️  Failed to send hello to client %s: %v", c.ID, err)
	}
}

// writePump sends messages from the Send channel to the WebSocket
// and keeps the connection alive with periodic pings
func (c *ClientConnection) writePump() {
	pingTicker := time.NewTicker(config.WSPingInterval)
	defer func() {
		pingTicker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				return
			}

			c.writeMutex.Lock()
			c.Conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			err := c.Conn.WriteMessage(websocket.TextMessage, message)
			c.writeMutex.Unlock()

			if err != nil {
				logger.Errorf("❌ Write error for client %s: %v", c.ID, err)
				return
			}

		case <-pingTicker.C:
			c.writeMutex.Lock()
			c.Conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			err := c.Conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMutex.Unlock()

			if err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket and handles state requests
func (c *ClientConnection) readPump() {
	defer func() {
		clientUnregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("❌ Read error for client %s: %v", c.ID, err)
			}
			break
		}
		c.Conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))

		var msg ClientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			logger.Errorf("❌ Failed to parse message from client %s: %v", c.ID, err)
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming client messages
func (c *ClientConnection) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case "state":
		// Re-send the current snapshot on demand
		globalStateMutex.RLock()
		gs := globalState
		globalStateMutex.RUnlock()
		c.sendHello(gs)

	case "ping":
		c.writeJSON(map[string]interface{}{"type": "pong"})

	default:
		logger.Warnf("⚠️  Unknown message type from client %s: %s", c.ID, msg.Type)
	}
}

// generateClientID creates a unique client ID
func generateClientID() string {
	id := atomic.AddInt64(&clientIDCounter, 1)
	return fmt.Sprintf("%d-%d", time.Now().Unix(), id)
}
