package repository

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

const DefaultRoomIDLength = 6

// RoomRepository owns every live room of the process.
type RoomRepository interface {
	Create(size int, mode string) *entity.Room
	GetByID(id string) (*entity.Room, error)
	DeleteByID(id string)
	Count() int
}

type memRoom struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room

	idLength   int
	generateID func(length int) string
}

func NewRoomRepository(idLength int) RoomRepository {
	return newRoomRepository(idLength, pkg.GenerateRoomID)
}

func newRoomRepository(idLength int, generateID func(length int) string) *memRoom {
	if idLength <= 0 {
		idLength = DefaultRoomIDLength
	}

	return &memRoom{
		rooms:      make(map[string]*entity.Room),
		idLength:   idLength,
		generateID: generateID,
	}
}

// Create inserts a fresh room under an identifier no live room uses.
func (that *memRoom) Create(size int, mode string) *entity.Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	for {
		id := that.generateID(that.idLength)
		if id == "" {
			continue
		}

		if _, exists := that.rooms[id]; exists {
			continue
		}

		room := entity.NewRoom(id, size, mode)
		that.rooms[id] = room

		return room
	}
}

func (that *memRoom) GetByID(id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

func (that *memRoom) DeleteByID(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, id)
}

func (that *memRoom) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
