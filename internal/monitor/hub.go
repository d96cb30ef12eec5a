package monitor

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/v0xg/clickreplay/internal/progress"
)

var (
	// ErrBufferFull is returned when a client send buffer is full
	ErrBufferFull = errors.New("send buffer full")
	// ErrNotConnected is returned for connections the hub no longer holds
	ErrNotConnected = errors.New("connection not registered")
)

// Event is the JSON payload pushed to websocket clients
type Event struct {
	Type    string         `json:"type"`
	RunID   string         `json:"run_id,omitempty"`
	Current int            `json:"current"`
	Total   int            `json:"total"`
	State   progress.State `json:"state"`
	Percent float64        `json:"percent"`
	TS      int64          `json:"ts"`
}

const (
	EventHello    = "hello"
	EventProgress = "progress"
	EventState    = "state"
)

// Connection is a single websocket client
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	mu   sync.Mutex
}

// WriteMessage writes a message to the connection with proper locking
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Close closes the connection
func (c *Connection) Close() error {
	return c.Conn.Close()
}

// Hub fans progress out to every connected client. It implements
// progress.Sink and never blocks the caller: updates are dropped when the
// broadcast queue is full.
type Hub struct {
	connections map[string]*Connection

	unregister chan *Connection
	broadcast  chan []byte
	quit       chan struct{}
	stopOnce   sync.Once

	tracker progress.Tracker
	runID   func() string
	log     logrus.FieldLogger

	mu sync.RWMutex
}

// NewHub creates a hub. runID may be nil.
func NewHub(runID func() string, log logrus.FieldLogger) *Hub {
	if runID == nil {
		runID = func() string { return "" }
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Hub{
		connections: make(map[string]*Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan []byte, 256),
		quit:        make(chan struct{}),
		runID:       runID,
		log:         log,
	}
}

// Run is the hub main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				close(conn.Send)
			}
			h.mu.Unlock()
			h.log.WithField("conn", conn.ID).Debug("Monitor client disconnected")

		case data := <-h.broadcast:
			h.mu.RLock()
			for id, conn := range h.connections {
				select {
				case conn.Send <- data:
				default:
					h.log.WithField("conn", id).Warn("Monitor client buffer full, closing")
					go h.Unregister(conn)
				}
			}
			h.mu.RUnlock()

		case <-h.quit:
			h.mu.Lock()
			for id, conn := range h.connections {
				delete(h.connections, id)
				close(conn.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop terminates Run and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// NewConnection wraps ws in a hub connection
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		Conn: ws,
		Send: make(chan []byte, 64),
	}
}

// Register adds a connection. It reports false once the hub is stopped.
func (h *Hub) Register(conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.quit:
		return false
	default:
	}
	h.connections[conn.ID] = conn
	h.log.WithField("conn", conn.ID).Debug("Monitor client connected")
	return true
}

// SendTo queues data for a single registered connection
func (h *Hub) SendTo(conn *Connection, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return ErrNotConnected
	}
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// ConnectionCount returns the number of active connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Last returns the latest progress seen
func (h *Hub) Last() progress.Snapshot {
	return h.tracker.Last()
}

// Snapshot builds the event describing the latest progress
func (h *Hub) Snapshot(kind string) Event {
	last := h.tracker.Last()
	return Event{
		Type:    kind,
		RunID:   h.runID(),
		Current: last.Current,
		Total:   last.Total,
		State:   last.State,
		Percent: last.Percent(),
		TS:      time.Now().UnixMilli(),
	}
}

func (h *Hub) Update(current, total int) {
	h.tracker.Update(current, total)
	h.publish(h.Snapshot(EventProgress))
}

func (h *Hub) SetState(state progress.State) {
	h.tracker.SetState(state)
	h.publish(h.Snapshot(EventState))
}

func (h *Hub) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode monitor event")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Debug("Monitor broadcast queue full, dropping update")
	}
}
