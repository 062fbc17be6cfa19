package service

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const (
	RolePlayer    = "player"
	RoleObserver  = "observer"
	roleSpectator = "spectator"

	DefaultMaxSize = 10

	refusedRoomNotFound = "room_not_found"
	refusedRoomFull     = "room_full"
)

type roomRepo interface {
	Create(size int, mode string) *entity.Room
	GetByID(id string) (*entity.Room, error)
	DeleteByID(id string)
}

type recorder interface {
	RoomCreated()
	RoomRemoved()
	Joined(role string)
	JoinRefused(reason string)
	MoveApplied(mover string)
	MoveIgnored()
	BotMoveAborted()
}

type Options struct {
	BotDelay time.Duration
	MaxSize  int
}

// SessionManager applies every participant event to room state. Each
// operation holds exactly one room lock and broadcasts before releasing it.
type SessionManager struct {
	logger    *slog.Logger
	rooms     roomRepo
	broadcast BroadcastService
	bot       BotService
	metrics   recorder

	botDelay time.Duration
	maxSize  int
	botTasks sync.WaitGroup
}

func NewSessionManager(
	logger *slog.Logger,
	rooms roomRepo,
	broadcast BroadcastService,
	bot BotService,
	stats recorder,
	opts Options,
) *SessionManager {
	if opts.BotDelay <= 0 {
		opts.BotDelay = DefaultBotDelay
	}

	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}

	return &SessionManager{
		logger:    logger.With("component", "session"),
		rooms:     rooms,
		broadcast: broadcast,
		bot:       bot,
		metrics:   stats,
		botDelay:  opts.BotDelay,
		maxSize:   opts.MaxSize,
	}
}

// NormalizeRole maps a requested role to RolePlayer or RoleObserver.
func NormalizeRole(role string) string {
	switch strings.ToLower(role) {
	case RoleObserver, roleSpectator:
		return RoleObserver
	default:
		return RolePlayer
	}
}

func (that *SessionManager) CreateRoom(size int, mode string) (string, error) {
	if size < 1 || size > that.maxSize {
		return "", fmt.Errorf("%w: %d", apperror.ErrInvalidRoomSize, size)
	}

	if mode != entity.ModePvP && mode != entity.ModePvC {
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidMode, mode)
	}

	room := that.rooms.Create(size, mode)
	that.metrics.RoomCreated()

	that.logger.Info("room created", "roomID", room.ID, "size", size, "mode", mode)

	return room.ID, nil
}

// Join registers conn under participantID. A participant already registered
// under the same role keeps its seat and only swaps connections; the replaced
// connection is closed.
func (that *SessionManager) Join(roomID, participantID, role, preferredSymbol string, conn entity.Connection) error {
	log := that.logger.With("method", "Join", "roomID", roomID, "participantID", participantID)

	role = NormalizeRole(role)

	room, err := that.rooms.GetByID(roomID)
	if err != nil {
		that.metrics.JoinRefused(refusedRoomNotFound)
		return fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	room.Lock()

	if room.IsClosed() {
		room.Unlock()
		that.metrics.JoinRefused(refusedRoomNotFound)
		return fmt.Errorf("failed to join room %s: %w", roomID, apperror.ErrRoomNotFound)
	}

	var replaced entity.Connection

	wasPlaying := room.IsPlaying()

	if role == RoleObserver {
		replaced = room.Observers[participantID]
		room.Observers[participantID] = conn
	} else {
		replaced, err = that.seatPlayer(room, participantID, preferredSymbol, conn)
		if err != nil {
			room.Unlock()
			that.metrics.JoinRefused(refusedRoomFull)
			return fmt.Errorf("failed to join room %s: %w", roomID, err)
		}
	}

	that.broadcast.Broadcast(room)

	// a pvc room resumed on the bot's turn would otherwise never move again
	if !wasPlaying {
		that.maybeScheduleBotTurn(room)
	}

	room.Unlock()

	that.metrics.Joined(role)
	log.Info("participant joined", "role", role)

	if replaced != nil && replaced != conn {
		if err = replaced.Close(); err != nil {
			log.Debug("failed to close replaced connection", "error", err)
		}
	}

	return nil
}

// seatPlayer seats a new player or swaps the connection of a seated one.
func (that *SessionManager) seatPlayer(room *entity.Room, participantID, preferredSymbol string, conn entity.Connection) (entity.Connection, error) {
	if player := room.Player(participantID); player != nil {
		replaced := player.Conn
		player.Conn = conn
		return replaced, nil
	}

	if len(room.Players) >= 2 {
		return nil, apperror.ErrRoomFull
	}

	symbol, ok := assignSymbol(room, preferredSymbol)
	if !ok {
		return nil, apperror.ErrRoomFull
	}

	room.Players = append(room.Players, &entity.Player{
		ID:     participantID,
		Symbol: symbol,
		Conn:   conn,
	})

	// a decided match stays decided until reset
	if room.CanStart() && room.Winner == "" {
		room.Status = entity.StatusPlaying
	}

	return nil, nil
}

// assignSymbol honors a free preferred symbol, otherwise X then O. The bot
// symbol is never handed to a human in pvc rooms.
func assignSymbol(room *entity.Room, preferredSymbol string) (string, bool) {
	taken := func(symbol string) bool {
		return room.SymbolTaken(symbol) || (room.IsWithBot() && symbol == entity.BotSymbol)
	}

	preferred := strings.ToUpper(preferredSymbol)
	if (preferred == entity.PlayerX || preferred == entity.PlayerO) && !taken(preferred) {
		return preferred, true
	}

	for _, symbol := range []string{entity.PlayerX, entity.PlayerO} {
		if !taken(symbol) {
			return symbol, true
		}
	}

	return "", false
}

// Move applies a player's move. Illegal moves are ignored and report false.
func (that *SessionManager) Move(roomID, participantID string, cell int) bool {
	log := that.logger.With("method", "Move", "roomID", roomID, "participantID", participantID)

	room, err := that.rooms.GetByID(roomID)
	if err != nil {
		that.metrics.MoveIgnored()
		log.Debug("move ignored", "error", err)
		return false
	}

	room.Lock()
	defer room.Unlock()

	if room.IsClosed() || !room.IsPlaying() {
		that.metrics.MoveIgnored()
		log.Debug("move ignored", "status", room.Status)
		return false
	}

	player := room.Player(participantID)
	if player == nil {
		that.metrics.MoveIgnored()
		log.Debug("move ignored, not a player")
		return false
	}

	if err = tictactoe.MakeTurn(room, player.Symbol, cell); err != nil {
		that.metrics.MoveIgnored()
		log.Debug("move ignored", "cell", cell, "error", err)
		return false
	}

	that.metrics.MoveApplied(metrics.MoverHuman)
	that.broadcast.Broadcast(room)
	that.maybeScheduleBotTurn(room)

	return true
}

// Reset clears the board for a new match, membership is kept.
func (that *SessionManager) Reset(roomID string) {
	room, err := that.rooms.GetByID(roomID)
	if err != nil {
		return
	}

	room.Lock()
	defer room.Unlock()

	if room.IsClosed() {
		return
	}

	room.ResetBoard()
	that.broadcast.Broadcast(room)

	that.logger.Info("room reset", "roomID", roomID, "status", room.Status)
}

// Disconnect removes participantID from the room whatever connection it holds.
func (that *SessionManager) Disconnect(roomID, participantID string) {
	that.disconnect(roomID, participantID, nil)
}

// DisconnectConn removes participantID only while conn is still its
// registered connection, so a replaced connection closing late is a no-op.
func (that *SessionManager) DisconnectConn(roomID, participantID string, conn entity.Connection) {
	that.disconnect(roomID, participantID, conn)
}

func (that *SessionManager) disconnect(roomID, participantID string, conn entity.Connection) {
	log := that.logger.With("method", "Disconnect", "roomID", roomID, "participantID", participantID)

	room, err := that.rooms.GetByID(roomID)
	if err != nil {
		return
	}

	room.Lock()
	defer room.Unlock()

	if room.IsClosed() {
		return
	}

	owns := func(registered entity.Connection) bool {
		return conn == nil || registered == conn
	}

	if player := room.Player(participantID); player != nil && owns(player.Conn) {
		room.RemovePlayer(participantID)
		room.Status = entity.StatusPlayerDisconnected
		that.broadcast.Broadcast(room)

		log.Info("player disconnected")
	} else if observer, ok := room.Observers[participantID]; ok && owns(observer) {
		delete(room.Observers, participantID)

		log.Info("observer disconnected")
	} else {
		return
	}

	if room.IsEmpty() {
		that.removeRoom(room)
	}
}

// removeRoom deletes an empty room. Callers must hold the room lock.
func (that *SessionManager) removeRoom(room *entity.Room) {
	room.Close()
	that.rooms.DeleteByID(room.ID)
	that.broadcast.Forget(room.ID)
	that.metrics.RoomRemoved()

	that.logger.Info("room removed", "roomID", room.ID)
}

// Snapshot returns the current state of a room.
func (that *SessionManager) Snapshot(roomID string) (*entity.Snapshot, error) {
	room, err := that.rooms.GetByID(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", roomID, err)
	}

	room.Lock()
	defer room.Unlock()

	if room.IsClosed() {
		return nil, fmt.Errorf("failed to get room %s: %w", roomID, apperror.ErrRoomNotFound)
	}

	return room.Snapshot(), nil
}
