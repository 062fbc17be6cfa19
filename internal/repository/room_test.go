package repository

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

func TestRoomRepository_Create(t *testing.T) {
	t.Run("Creates a waiting room with an empty board", func(t *testing.T) {
		repo := NewRoomRepository(DefaultRoomIDLength)

		// When: a 4x4 pvc room is created
		room := repo.Create(4, entity.ModePvC)

		// Then: the room is fresh and retrievable
		assert.Len(t, room.ID, DefaultRoomIDLength)
		assert.Equal(t, 4, room.Size)
		assert.Equal(t, make([]string, 16), room.Board)
		assert.Equal(t, entity.PlayerX, room.Turn)
		assert.Equal(t, entity.StatusWaiting, room.Status)
		assert.Equal(t, entity.ModePvC, room.Mode)
		assert.Empty(t, room.Winner)
		assert.Empty(t, room.WinningLine)

		stored, err := repo.GetByID(room.ID)
		require.NoError(t, err)
		assert.Same(t, room, stored)
	})

	t.Run("Retries on identifier collision", func(t *testing.T) {
		// Given: a generator that yields a duplicate before a fresh id
		ids := []string{"AAAAAA", "AAAAAA", "", "BBBBBB"}
		repo := newRoomRepository(6, func(int) string {
			id := ids[0]
			ids = ids[1:]
			return id
		})

		// When: two rooms are created
		first := repo.Create(3, entity.ModePvP)
		second := repo.Create(3, entity.ModePvP)

		// Then: the collision and the empty id are skipped
		assert.Equal(t, "AAAAAA", first.ID)
		assert.Equal(t, "BBBBBB", second.ID)
		assert.Equal(t, 2, repo.Count())
	})

	t.Run("Concurrent creates yield unique ids", func(t *testing.T) {
		repo := NewRoomRepository(2)

		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				repo.Create(3, entity.ModePvP)
			}()
		}
		wg.Wait()

		assert.Equal(t, 200, repo.Count())
	})
}

func TestRoomRepository_GetByID(t *testing.T) {
	repo := NewRoomRepository(DefaultRoomIDLength)

	// When: GetByID is called with an unknown id
	room, err := repo.GetByID("NOPE00")

	// Then: ErrRoomNotFound is returned
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	assert.Nil(t, room)
}

func TestRoomRepository_DeleteByID(t *testing.T) {
	repo := NewRoomRepository(DefaultRoomIDLength)
	room := repo.Create(3, entity.ModePvP)

	// When: the room is deleted twice
	repo.DeleteByID(room.ID)
	repo.DeleteByID(room.ID)

	// Then: it is gone and the second delete is a no-op
	_, err := repo.GetByID(room.ID)
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	assert.Zero(t, repo.Count())
}
