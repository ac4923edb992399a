package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livepoll/go/internal/votes"
	"github.com/rs/zerolog/log"
)

// CommandHandler processes one inbound command frame for a connection
type CommandHandler interface {
	HandleCommand(ctx context.Context, c *Connection, env Envelope)
}

// ConnectionManager owns every socket connected to this instance. All
// connections share one room: a broadcast reaches each of them.
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan []byte
	bus         Bus
	clock       clockwork.Clock
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID       string
	RemoteIP net.IP
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	ConnectedAt time.Time

	handler CommandHandler
	mu      sync.Mutex
	closed  bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	PingInterval      time.Duration
	MaxMessageSize    int64
	ReadBufferSize    int
	WriteBufferSize   int
	SendBufferSize    int
	CommandTimeout    time.Duration
	HeartbeatInterval time.Duration
	CheckOrigin       func(r *http.Request) bool
}

// ConnectionStats is served on /ws/stats
type ConnectionStats struct {
	TotalConnections int    `json:"total_connections"`
	Bus              string `json:"bus"`
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       60 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageSize:    16 * 1024,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		SendBufferSize:    256,
		CommandTimeout:    10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a connection manager. With a nil bus,
// broadcasts are delivered to local connections only.
func NewConnectionManager(config ConnectionConfig, bus Bus, clock clockwork.Clock) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan []byte, 1000),
		bus:         bus,
		clock:       clock,
	}
}

// Start subscribes to the bus, runs the heartbeat and delivers broadcasts
// until ctx is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) error {
	if cm.bus != nil {
		if err := cm.bus.Subscribe(ctx, cm.enqueue); err != nil {
			return fmt.Errorf("subscribe to %s bus: %w", cm.bus.Name(), err)
		}
	}
	go cm.runHeartbeat(ctx)

	log.Info().Str("bus", cm.busName()).Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return nil
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket. Commands read
// from the socket are passed to handler.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, handler CommandHandler) error {
	remoteIP := votes.ClientIP(r)

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		RemoteIP:    remoteIP,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: cm.clock.Now(),
		handler:     handler,
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_ip", remoteIP.String()).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; !exists {
		return
	}
	delete(cm.connections, conn)
	conn.close()

	log.Info().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection unregistered")
}

// Broadcast sends an event to every client. When a bus is configured the
// frame travels through it so that every instance delivers it; if publishing
// fails the frame is still delivered to local clients.
func (cm *ConnectionManager) Broadcast(ctx context.Context, eventType EventType, data any) {
	message, err := EncodeEnvelope(eventType, data, cm.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to encode broadcast")
		return
	}

	if cm.bus != nil {
		err := cm.bus.Publish(ctx, message)
		if err == nil {
			return
		}
		log.Warn().
			Err(err).
			Str("bus", cm.bus.Name()).
			Str("event_type", string(eventType)).
			Msg("bus publish failed, delivering locally")
	}
	cm.enqueue(message)
}

// broadcastLocal delivers an event to this instance's clients only
func (cm *ConnectionManager) broadcastLocal(eventType EventType, data any) {
	message, err := EncodeEnvelope(eventType, data, cm.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to encode broadcast")
		return
	}
	cm.enqueue(message)
}

func (cm *ConnectionManager) enqueue(message []byte) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().Msg("broadcast channel full, dropping message")
	}
}

// Send delivers an event to a single connection
func (cm *ConnectionManager) Send(c *Connection, eventType EventType, data any) {
	message, err := EncodeEnvelope(eventType, data, cm.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to encode message")
		return
	}
	if !c.enqueue(message) {
		cm.dropSlow(c)
	}
}

func (cm *ConnectionManager) handleBroadcast(message []byte) {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		if !conn.enqueue(message) {
			cm.dropSlow(conn)
		}
	}

	log.Debug().
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

func (cm *ConnectionManager) dropSlow(conn *Connection) {
	log.Warn().
		Str("connection_id", conn.ID).
		Msg("connection send buffer full, closing connection")
	cm.unregisterConnection(conn)
	conn.Conn.Close()
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return ConnectionStats{
		TotalConnections: len(cm.connections),
		Bus:              cm.busName(),
	}
}

func (cm *ConnectionManager) busName() string {
	if cm.bus == nil {
		return "local"
	}
	return cm.bus.Name()
}

// enqueue reports false when the send buffer is full
func (c *Connection) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage runs one command to completion before the next frame
// is read, bounded by the command timeout.
func (c *Connection) handleClientMessage(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
		c.Manager.Send(c, EventError, ErrorPayload{Message: "invalid message format"})
		return
	}
	if c.handler == nil {
		return
	}

	log.Debug().
		Str("connection_id", c.ID).
		Str("command", string(env.Type)).
		Msg("received client command")

	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.CommandTimeout)
	defer cancel()
	c.handler.HandleCommand(ctx, c, env)
}
