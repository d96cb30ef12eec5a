// Package monitor serves run status over HTTP and streams progress to
// websocket clients, and lets a remote operator request an emergency stop.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/v0xg/clickreplay/internal/abort"
	"github.com/v0xg/clickreplay/internal/progress"
	"github.com/v0xg/clickreplay/internal/runstate"
)

const (
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	maxMessageSize = 4096
)

// Options configures the monitor server
type Options struct {
	State  *runstate.State
	Hub    *Hub
	Cancel *abort.Flag
	Log    logrus.FieldLogger
}

// Status is the body of GET /status
type Status struct {
	RunID     string            `json:"run_id,omitempty"`
	Running   bool              `json:"running"`
	Cancelled bool              `json:"cancelled"`
	Current   int               `json:"current"`
	Total     int               `json:"total"`
	Progress  progress.Snapshot `json:"progress"`
	Percent   float64           `json:"percent"`
}

// Server is the monitor HTTP server
type Server struct {
	echo     *echo.Echo
	opts     Options
	upgrader websocket.Upgrader
}

// NewServer creates a monitor server. State, Hub and Cancel are required.
func NewServer(opts Options) *Server {
	if opts.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Log = l
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			opts.Log.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Debug("Monitor request")
			return nil
		},
	}))

	s := &Server{
		echo: e,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The monitor binds to localhost by default
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	e.GET("/health", s.handleHealth)
	e.GET("/status", s.handleStatus)
	e.POST("/cancel", s.handleCancel)
	e.GET("/ws", s.handleWebSocket)

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server and disconnects clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.opts.Hub.Stop()
	return s.echo.Shutdown(ctx)
}

// Status assembles the current status
func (s *Server) Status() Status {
	snap := s.opts.State.Snapshot()
	last := s.opts.Hub.Last()
	return Status{
		RunID:     s.opts.Hub.runID(),
		Running:   snap.Running,
		Cancelled: snap.Cancelled,
		Current:   snap.Current,
		Total:     snap.Total,
		Progress:  last,
		Percent:   last.Percent(),
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"connections": s.opts.Hub.ConnectionCount(),
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Status())
}

// CancelResponse is the body of POST /cancel
type CancelResponse struct {
	OK      bool   `json:"ok"`
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleCancel(c echo.Context) error {
	if !s.opts.State.IsRunning() {
		return c.JSON(http.StatusConflict, map[string]string{"error": "no run in progress"})
	}

	s.opts.Cancel.Trip()
	s.opts.Log.WithField("remote", c.RealIP()).Warn("Emergency stop requested over HTTP")

	return c.JSON(http.StatusAccepted, CancelResponse{
		OK:      true,
		RunID:   s.opts.Hub.runID(),
		Message: "emergency stop requested",
	})
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.opts.Log.WithError(err).Warn("Failed to upgrade WebSocket")
		return err
	}

	conn := s.opts.Hub.NewConnection(ws)
	if !s.opts.Hub.Register(conn) {
		ws.Close()
		return nil
	}

	ws.SetReadLimit(maxMessageSize)

	if data, err := json.Marshal(s.opts.Hub.Snapshot(EventHello)); err == nil {
		s.opts.Hub.SendTo(conn, data)
	}

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// clientMessage is what clients may send; only cancel is understood
type clientMessage struct {
	Type string `json:"type"`
}

func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.opts.Hub.Unregister(conn)
		conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.opts.Log.WithError(err).Debug("WebSocket error")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "cancel" && s.opts.State.IsRunning() {
			s.opts.Cancel.Trip()
			s.opts.Log.WithField("conn", conn.ID).Warn("Emergency stop requested over WebSocket")
		}
	}
}

func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
