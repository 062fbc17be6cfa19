package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// Connection adapts a websocket to entity.Connection. Send only enqueues,
// the write pump owns every write to the socket.
type Connection struct {
	id     string
	ws     *websocket.Conn
	logger *slog.Logger

	send chan []byte
	done chan struct{}

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

func newConnection(logger *slog.Logger, id string, ws *websocket.Conn) *Connection {
	return &Connection{
		id:     id,
		ws:     ws,
		logger: logger.With("connID", id),
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

func (that *Connection) ID() string {
	return that.id
}

func (that *Connection) Send(snapshot *entity.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	select {
	case <-that.done:
		return apperror.ErrConnectionClosed
	default:
	}

	select {
	case that.send <- data:
		return nil
	case <-that.done:
		return apperror.ErrConnectionClosed
	default:
		return fmt.Errorf("%w: send queue is full", apperror.ErrSendFailed)
	}
}

// Close asks the write pump to say goodbye and drop the socket.
func (that *Connection) Close() error {
	that.closeWith(websocket.CloseNormalClosure, "")
	return nil
}

func (that *Connection) closeWith(code int, reason string) {
	that.closeOnce.Do(func() {
		that.closeCode = code
		that.closeReason = reason
		close(that.done)
	})
}

// writePump drains the send queue and keeps the peer alive with pings.
func (that *Connection) writePump() {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.ws.Close()
	}()

	for {
		select {
		case data := <-that.send:
			if err := that.write(websocket.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				that.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-ticker.C:
			if err := that.write(websocket.PingMessage, nil); err != nil {
				log.Debug("failed to write ping", "error", err)
				that.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-that.done:
			that.flush()
			that.writeClose()
			return
		}
	}
}

// flush writes whatever is still queued so the final state reaches the peer.
func (that *Connection) flush() {
	for {
		select {
		case data := <-that.send:
			if err := that.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (that *Connection) writeClose() {
	if that.closeCode == websocket.CloseAbnormalClosure {
		return
	}

	message := websocket.FormatCloseMessage(that.closeCode, that.closeReason)
	if err := that.ws.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait)); err != nil {
		that.logger.Debug("failed to write close frame", "error", err)
	}
}

func (that *Connection) write(messageType int, data []byte) error {
	if err := that.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}

	return nil
}
