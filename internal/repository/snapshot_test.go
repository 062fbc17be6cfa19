package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

func testSnapshot(roomID string) *entity.Snapshot {
	room := entity.NewRoom(roomID, 3, entity.ModePvP)
	room.Players = []*entity.Player{{ID: "alice", Symbol: entity.PlayerX}}
	room.Board[4] = entity.PlayerX
	room.Turn = entity.PlayerO
	room.Status = entity.StatusPlaying

	return room.Snapshot()
}

func TestSnapshotMirror_Save(t *testing.T) {
	t.Run("Save_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		mirror := NewSnapshotMirror(st.Logger, st.Storage, time.Minute, 0)

		// Given: a snapshot of a room in progress
		snapshot := testSnapshot("ABC123")

		// When: Save is called
		err := mirror.Save(ctx, snapshot)

		// Then: the snapshot is readable with a ttl
		require.NoError(t, err)

		stored, err := mirror.GetByID(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, snapshot, stored)

		ttl, err := st.Storage.TTL(ctx, SnapshotKey("ABC123")).Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)
	})

	t.Run("Save_Publishes", func(t *testing.T) {
		ctx, st := suite.New(t)

		mirror := NewSnapshotMirror(st.Logger, st.Storage, time.Minute, 0)

		// Given: a subscriber on the room channel
		sub := st.Storage.Subscribe(ctx, SnapshotChannel("ABC123"))
		t.Cleanup(func() { _ = sub.Close() })
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		// When: a snapshot is saved
		snapshot := testSnapshot("ABC123")
		require.NoError(t, mirror.Save(ctx, snapshot))

		// Then: the subscriber receives it
		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)

		var received entity.Snapshot
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &received))
		assert.Equal(t, snapshot, &received)
	})
}

func TestSnapshotMirror_GetByID(t *testing.T) {
	ctx, st := suite.New(t)

	mirror := NewSnapshotMirror(st.Logger, st.Storage, time.Minute, 0)

	// When: GetByID is called for a room never mirrored
	snapshot, err := mirror.GetByID(ctx, "NOPE00")

	// Then: ErrSnapshotNotFound is returned
	require.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.Nil(t, snapshot)
}

func TestSnapshotMirror_Run(t *testing.T) {
	ctx, st := suite.New(t)

	mirror := NewSnapshotMirror(st.Logger, st.Storage, time.Minute, 4)

	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go mirror.Run(runCtx)

	// When: a snapshot is published through the queue
	mirror.Publish(testSnapshot("QUEUE1"))

	// Then: the worker writes it
	require.Eventually(t, func() bool {
		_, err := mirror.GetByID(ctx, "QUEUE1")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// When: the room is removed
	mirror.Remove("QUEUE1")

	// Then: the cached snapshot goes away
	require.Eventually(t, func() bool {
		_, err := mirror.GetByID(ctx, "QUEUE1")
		return errors.Is(err, ErrSnapshotNotFound)
	}, 5*time.Second, 20*time.Millisecond)
}
