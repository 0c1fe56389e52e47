package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lifelink-backend/internal/domain"
	"lifelink-backend/internal/middleware"
	"lifelink-backend/pkg/logger"
	"lifelink-backend/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// FeedSubscriber opens a pub/sub stream of row-change events for a set of
// tables. The stream closes when the context is cancelled.
type FeedSubscriber interface {
	Subscribe(ctx context.Context, tables ...string) (<-chan *domain.FeedEvent, error)
}

// FeedHub fans row-change events out to connected clients. Clients name the
// tables they watch at connect time and re-fetch their data on any event;
// the hub never ships row contents.
type FeedHub struct {
	subscriber FeedSubscriber
	metrics    *metrics.Metrics

	// clients grouped by watched table
	tables map[string]map[*Client]bool
	// one upstream subscription per table, cancelled when its last
	// client disconnects
	cancels map[string]context.CancelFunc
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	events     chan *domain.FeedEvent
}

// Client is one websocket connection watching a set of tables
type Client struct {
	hub    *FeedHub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
	tables []string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin restriction handled by the CORS layer
	},
}

// NewFeedHub creates a feed hub and starts its event loop. m may be nil.
func NewFeedHub(subscriber FeedSubscriber, m *metrics.Metrics) *FeedHub {
	hub := &FeedHub{
		subscriber: subscriber,
		metrics:    m,
		tables:     make(map[string]map[*Client]bool),
		cancels:    make(map[string]context.CancelFunc),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *domain.FeedEvent, 256),
	}

	go hub.run()

	return hub
}

func (h *FeedHub) run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.events:
			h.dispatch(event)
		}
	}
}

func (h *FeedHub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, table := range client.tables {
		if h.tables[table] == nil {
			h.tables[table] = make(map[*Client]bool)
			h.subscribeTable(table)
		}
		h.tables[table][client] = true
	}

	if h.metrics != nil {
		h.metrics.RecordFeedConnection(1)
	}
}

func (h *FeedHub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	for _, table := range client.tables {
		clients, ok := h.tables[table]
		if !ok {
			continue
		}
		if clients[client] {
			delete(clients, client)
			removed = true
		}
		if len(clients) == 0 {
			delete(h.tables, table)
			if cancel, ok := h.cancels[table]; ok {
				cancel()
				delete(h.cancels, table)
			}
		}
	}

	if removed {
		close(client.send)
		if h.metrics != nil {
			h.metrics.RecordFeedConnection(-1)
		}
	}
}

// subscribeTable opens the upstream subscription for a table. Caller holds
// the lock.
func (h *FeedHub) subscribeTable(table string) {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancels[table] = cancel

	events, err := h.subscriber.Subscribe(ctx, table)
	if err != nil {
		logger.Error("Failed to subscribe to feed table",
			zap.String("table", table),
			zap.Error(err))
		if h.metrics != nil {
			h.metrics.RecordFeedError("subscribe")
		}
		cancel()
		delete(h.cancels, table)
		return
	}

	go func() {
		for event := range events {
			h.events <- event
		}
	}()
}

func (h *FeedHub) dispatch(event *domain.FeedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.tables[event.Table]
	if !ok {
		return
	}

	for client := range clients {
		if event.Scoped() && client.userID != event.UserID {
			continue
		}
		select {
		case client.send <- data:
			if h.metrics != nil {
				h.metrics.RecordFeedEvent(event.Table)
			}
		default:
			// slow consumer, skip; the ping cycle will reap dead
			// connections
			if h.metrics != nil {
				h.metrics.RecordFeedError("dropped")
			}
		}
	}
}

// ServeWS upgrades the request and registers the client for the tables named
// in the `tables` query parameter
func (h *FeedHub) ServeWS(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tablesParam := c.Query("tables")
	if tablesParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tables parameter required"})
		return
	}

	known := map[string]bool{
		domain.FeedTableCallRequests:     true,
		domain.FeedTableCallParticipants: true,
		domain.FeedTableContactRequests:  true,
		domain.FeedTableChatMessages:     true,
	}

	var tables []string
	for _, table := range strings.Split(tablesParam, ",") {
		table = strings.TrimSpace(table)
		if !known[table] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown table: " + table})
			return
		}
		tables = append(tables, table)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
		tables: tables,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection; the feed is one-way, so inbound frames
// only serve to detect disconnects
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("Feed connection closed", zap.Error(err))
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
