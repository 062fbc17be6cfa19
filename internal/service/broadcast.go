package service

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type snapshotPublisher interface {
	Publish(snapshot *entity.Snapshot)
	Remove(roomID string)
}

type broadcastRecorder interface {
	Broadcast(failures int)
}

// BroadcastService fans a room snapshot out to every participant.
type BroadcastService interface {
	// Broadcast sends the current snapshot of room. Callers must hold the room lock.
	Broadcast(room *entity.Room)
	// Forget drops whatever was published for a removed room.
	Forget(roomID string)
}

type broadcastService struct {
	logger    *slog.Logger
	publisher snapshotPublisher
	metrics   broadcastRecorder
}

type nopPublisher struct{}

func (nopPublisher) Publish(*entity.Snapshot) {}

func (nopPublisher) Remove(string) {}

// NewBroadcastService builds the fanout. publisher may be nil.
func NewBroadcastService(logger *slog.Logger, publisher snapshotPublisher, metrics broadcastRecorder) BroadcastService {
	if publisher == nil {
		publisher = nopPublisher{}
	}

	return &broadcastService{
		logger:    logger.With("component", "broadcast"),
		publisher: publisher,
		metrics:   metrics,
	}
}

func (that *broadcastService) Broadcast(room *entity.Room) {
	log := that.logger.With("method", "Broadcast", "roomID", room.ID)

	snapshot := room.Snapshot()
	conns := room.Connections()

	var (
		wg       sync.WaitGroup
		failures atomic.Int32
	)

	for _, conn := range conns {
		wg.Add(1)

		go func(conn entity.Connection) {
			defer wg.Done()

			if err := send(conn, snapshot); err != nil {
				failures.Add(1)
				log.Debug("snapshot not delivered", "error", err)
			}
		}(conn)
	}

	wg.Wait()

	that.metrics.Broadcast(int(failures.Load()))
	that.publisher.Publish(snapshot)
}

func (that *broadcastService) Forget(roomID string) {
	that.publisher.Remove(roomID)
}

// send isolates one delivery so a misbehaving connection cannot take the others down.
func send(conn entity.Connection, snapshot *entity.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", apperror.ErrSendFailed, r)
		}
	}()

	if err = conn.Send(snapshot); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrSendFailed, err)
	}

	return nil
}
