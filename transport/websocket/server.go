package websocket

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

const (
	CloseRoomNotFound = 4004
	CloseRoomFull     = 4003

	reasonRoomNotFound = "Room not found"
	reasonRoomFull     = "Room full"
)

type sessionManager interface {
	Join(roomID, participantID, role, preferredSymbol string, conn entity.Connection) error
	Move(roomID, participantID string, cell int) bool
	Reset(roomID string)
	DisconnectConn(roomID, participantID string, conn entity.Connection)
}

// Server accepts participant connections on /ws/{roomID}/{participantID}.
type Server struct {
	logger   *slog.Logger
	sessions sessionManager
	upgrader websocket.Upgrader

	handlers map[string]messageHandler

	mu    sync.Mutex
	conns map[*Connection]struct{}
}

func New(logger *slog.Logger, sessions sessionManager) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		conns: make(map[*Connection]struct{}),
	}

	server.handlers = map[string]messageHandler{
		messageMove:  server.handleMove,
		messageReset: server.handleReset,
	}

	return server
}

func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	roomID := chi.URLParam(req, "roomID")
	participantID := chi.URLParam(req, "participantID")
	role := req.URL.Query().Get("role")
	prefer := req.URL.Query().Get("prefer")

	log := that.logger.With("method", "ServeHTTP", "roomID", roomID, "participantID", participantID)

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Debug("failed to upgrade connection", "error", err)
		return
	}

	ws.SetReadLimit(maxMessageSize)

	conn := newConnection(that.logger, pkg.GenerateConnectionID(), ws)
	log = log.With("connID", conn.ID())

	if err = that.sessions.Join(roomID, participantID, role, prefer, conn); err != nil {
		log.Info("join refused", "error", err)
		that.refuse(conn, err)
		return
	}

	that.track(conn)
	defer that.untrack(conn)

	// any way out of the read loop, a panic included, is a disconnect
	defer func() {
		if r := recover(); r != nil {
			log.Error("connection handler panicked", "panic", r)
		}

		that.sessions.DisconnectConn(roomID, participantID, conn)
		_ = conn.Close()

		log.Info("connection closed")
	}()

	go conn.writePump()

	that.readLoop(roomID, participantID, conn)
}

// refuse closes a connection whose join was rejected. Nothing was registered,
// so the close frame is written right here.
func (that *Server) refuse(conn *Connection, err error) {
	switch {
	case errors.Is(err, apperror.ErrRoomFull):
		conn.closeWith(CloseRoomFull, reasonRoomFull)
	default:
		conn.closeWith(CloseRoomNotFound, reasonRoomNotFound)
	}

	conn.writePump()
}

func (that *Server) readLoop(roomID, participantID string, conn *Connection) {
	log := that.logger.With("method", "readLoop", "roomID", roomID, "participantID", participantID, "connID", conn.ID())

	ws := conn.ws

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("connection dropped", "error", err)
			}
			return
		}

		message, err := parseMessage(data)
		if err != nil {
			log.Debug("malformed message ignored", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Type]
		if !ok {
			log.Debug("unknown message ignored", "type", message.Type)
			continue
		}

		handler(roomID, participantID, message)
	}
}

func (that *Server) track(conn *Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.conns[conn] = struct{}{}
}

func (that *Server) untrack(conn *Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.conns, conn)
}

// CloseAll tells every open connection the server is going away.
func (that *Server) CloseAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for conn := range that.conns {
		conn.closeWith(websocket.CloseGoingAway, "server shutdown")
	}
}
