package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager tracks WebSocket connections per plan and fans plan
// events out to them.
type ConnectionManager struct {
	planConnections map[string]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID      string
	PlanID  string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage targets every connection watching one plan.
type BroadcastMessage struct {
	PlanID string
	Event  *PlanEvent
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		planConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 256),
	}
}

// Start runs the broadcast loop until the context ends.
func (cm *ConnectionManager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			return
		case msg := <-cm.broadcastCh:
			cm.deliver(msg)
		}
	}
}

// Broadcast queues an event for every connection watching the plan.
func (cm *ConnectionManager) Broadcast(planID string, event *PlanEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{PlanID: planID, Event: event}:
	default:
		log.Warn().Str("plan_id", planID).Msg("broadcast channel full, dropping event")
	}
}

// UpgradeConnection upgrades an HTTP request and registers the client.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, planID string) error {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		PlanID:      planID,
		Conn:        ws,
		Send:        make(chan []byte, 32),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.mu.Lock()
	if cm.planConnections[planID] == nil {
		cm.planConnections[planID] = make(map[*Connection]bool)
	}
	cm.planConnections[planID][conn] = true
	cm.mu.Unlock()

	log.Info().Str("connection_id", conn.ID).Str("plan_id", planID).Msg("websocket client connected")

	go conn.writePump()
	go conn.readPump()
	return nil
}

// Stats returns connection counts for the stats endpoint.
func (cm *ConnectionManager) Stats() (totalConnections, activePlans int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, conns := range cm.planConnections {
		totalConnections += len(conns)
	}
	return totalConnections, len(cm.planConnections)
}

func (cm *ConnectionManager) deliver(msg BroadcastMessage) {
	data, err := json.Marshal(msg.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal plan event")
		return
	}

	cm.mu.RLock()
	conns := cm.planConnections[msg.PlanID]
	targets := make([]*Connection, 0, len(conns))
	for conn := range conns {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Slow consumer, drop the connection.
			cm.unregister(conn)
		}
	}
}

func (cm *ConnectionManager) unregister(conn *Connection) {
	cm.mu.Lock()
	if conns, ok := cm.planConnections[conn.PlanID]; ok {
		if conns[conn] {
			delete(conns, conn)
			close(conn.Send)
		}
		if len(conns) == 0 {
			delete(cm.planConnections, conn.PlanID)
		}
	}
	cm.mu.Unlock()
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for planID, conns := range cm.planConnections {
		for conn := range conns {
			close(conn.Send)
			_ = conn.Conn.Close()
		}
		delete(cm.planConnections, planID)
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregister(c)
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	})

	for {
		// Clients only listen; reads exist to notice disconnects and pongs.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("websocket read error")
			}
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
