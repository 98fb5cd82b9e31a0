package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans order events from a Redis channel out to every connected
// kitchen screen.
type Hub struct {
	mu          sync.Mutex
	connections map[uuid.UUID]*websocket.Conn
	redisClient *redis.Client
	channel     string
	logger      *slog.Logger
}

func NewHub(redisClient *redis.Client, channel string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		connections: make(map[uuid.UUID]*websocket.Conn),
		redisClient: redisClient,
		channel:     channel,
		logger:      logger,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := h.registerConnection(conn)

	// Kitchen screens only listen; reading detects the disconnect.
	go func() {
		defer h.unregisterConnection(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) registerConnection(conn *websocket.Conn) uuid.UUID {
	id := uuid.New()

	h.mu.Lock()
	h.connections[id] = conn
	total := len(h.connections)
	h.mu.Unlock()

	h.logger.Info("kitchen screen connected", "conn_id", id, "total", total)
	return id
}

func (h *Hub) unregisterConnection(id uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.connections[id]
	delete(h.connections, id)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.logger.Info("kitchen screen disconnected", "conn_id", id)
	}
}

// ConnectionCount reports how many kitchen screens are attached.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Run relays the Redis channel until ctx is cancelled, then closes all
// connections.
func (h *Hub) Run(ctx context.Context) error {
	pubsub := h.redisClient.Subscribe(ctx, h.channel)
	defer pubsub.Close()
	defer h.closeAll()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.Broadcast([]byte(msg.Payload))
		}
	}
}

// Broadcast writes data to every connection, dropping the ones that fail.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.connections {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("kitchen screen write failed", "conn_id", id, "error", err)
			conn.Close()
			delete(h.connections, id)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.connections {
		conn.Close()
		delete(h.connections, id)
	}
}
