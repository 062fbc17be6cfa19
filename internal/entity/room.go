package entity

import (
	"slices"
	"sync"
)

const (
	StatusWaiting            = "waiting"
	StatusPlaying            = "playing"
	StatusPlayerDisconnected = "player_disconnected"
	StatusFinished           = "finished"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "draw"

	EmptyCell = ""
)

const (
	ModePvP = "pvp"
	ModePvC = "pvc"

	// BotSymbol is the symbol the automated opponent plays in pvc rooms.
	BotSymbol = PlayerO
)

// Connection is the outbound side of a participant's persistent connection.
// Send must not block on network I/O: it is called while the room is locked.
type Connection interface {
	Send(snapshot *Snapshot) error
	Close() error
}

type Player struct {
	ID     string
	Symbol string
	Conn   Connection
}

// Room is one game instance. Every field is guarded by the room lock.
type Room struct {
	mu sync.Mutex

	ID          string
	Size        int
	Board       []string
	Turn        string
	Status      string
	Winner      string
	WinningLine []int
	Mode        string

	// Players keeps join order, it never holds more than two entries.
	Players   []*Player
	Observers map[string]Connection

	closed bool
}

func NewRoom(id string, size int, mode string) *Room {
	return &Room{
		ID:          id,
		Size:        size,
		Board:       make([]string, size*size),
		Turn:        PlayerX,
		Status:      StatusWaiting,
		WinningLine: []int{},
		Mode:        mode,
		Observers:   make(map[string]Connection),
	}
}

func (that *Room) Lock() {
	that.mu.Lock()
}

func (that *Room) Unlock() {
	that.mu.Unlock()
}

// Close marks the room as removed from the registry. Callers must hold the lock.
func (that *Room) Close() {
	that.closed = true
}

func (that *Room) IsClosed() bool {
	return that.closed
}

func (that *Room) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsWithBot() bool {
	return that.Mode == ModePvC
}

func (that *Room) Player(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}

	return nil
}

func (that *Room) SymbolTaken(symbol string) bool {
	for _, player := range that.Players {
		if player.Symbol == symbol {
			return true
		}
	}

	return false
}

func (that *Room) RemovePlayer(id string) {
	that.Players = slices.DeleteFunc(that.Players, func(player *Player) bool {
		return player.ID == id
	})
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0 && len(that.Observers) == 0
}

// CanStart reports whether the room has enough players to be playing.
func (that *Room) CanStart() bool {
	return that.IsWithBot() || len(that.Players) == 2
}

// ResetBoard starts a new match without touching membership.
func (that *Room) ResetBoard() {
	that.Board = make([]string, that.Size*that.Size)
	that.Winner = ""
	that.WinningLine = []int{}
	that.Turn = PlayerX

	if that.CanStart() {
		that.Status = StatusPlaying
	} else {
		that.Status = StatusWaiting
	}
}

// EmptyCells returns the indexes of all free cells in board order.
func (that *Room) EmptyCells() []int {
	cells := make([]int, 0, len(that.Board))
	for i, cell := range that.Board {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

// Connections lists every player and observer connection.
func (that *Room) Connections() []Connection {
	conns := make([]Connection, 0, len(that.Players)+len(that.Observers))
	for _, player := range that.Players {
		conns = append(conns, player.Conn)
	}

	for _, conn := range that.Observers {
		conns = append(conns, conn)
	}

	return conns
}
