package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	DefaultSnapshotTTL = time.Hour
	DefaultQueueSize   = 256

	writeTimeout = 2 * time.Second
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

func SnapshotKey(roomID string) string {
	return "room:" + roomID
}

func SnapshotChannel(roomID string) string {
	return "room:" + roomID + ":state"
}

// mirrorOp is a pending write; a nil snapshot removes the room.
type mirrorOp struct {
	roomID   string
	snapshot *entity.Snapshot
}

// SnapshotMirror copies every broadcast snapshot to redis: the last one is
// cached under SnapshotKey and each one is published on SnapshotChannel.
// Writes go through a bounded queue drained by Run, so callers never wait on redis.
type SnapshotMirror struct {
	logger *slog.Logger
	client *redis.Client
	ttl    time.Duration
	queue  chan mirrorOp
}

func NewSnapshotMirror(logger *slog.Logger, client *redis.Client, ttl time.Duration, queueSize int) *SnapshotMirror {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}

	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &SnapshotMirror{
		logger: logger.With("component", "snapshot_mirror"),
		client: client,
		ttl:    ttl,
		queue:  make(chan mirrorOp, queueSize),
	}
}

// Publish queues a snapshot write. The snapshot is dropped when the queue is full.
func (that *SnapshotMirror) Publish(snapshot *entity.Snapshot) {
	that.enqueue(mirrorOp{roomID: snapshot.RoomID, snapshot: snapshot})
}

// Remove queues the deletion of a room's cached snapshot.
func (that *SnapshotMirror) Remove(roomID string) {
	that.enqueue(mirrorOp{roomID: roomID})
}

func (that *SnapshotMirror) enqueue(op mirrorOp) {
	select {
	case that.queue <- op:
	default:
		that.logger.Warn("mirror queue is full, dropping write", "roomID", op.roomID)
	}
}

// Run drains the queue until ctx is canceled.
func (that *SnapshotMirror) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	for {
		select {
		case <-ctx.Done():
			return
		case op := <-that.queue:
			opCtx, cancel := context.WithTimeout(ctx, writeTimeout)

			var err error
			if op.snapshot == nil {
				err = that.DeleteByID(opCtx, op.roomID)
			} else {
				err = that.Save(opCtx, op.snapshot)
			}

			cancel()

			if err != nil {
				log.Error("failed to mirror snapshot", "roomID", op.roomID, "error", err)
			}
		}
	}
}

func (that *SnapshotMirror) Save(ctx context.Context, snapshot *entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SnapshotKey(snapshot.RoomID), snapshotJSON, that.ttl)
		pipe.Publish(ctx, SnapshotChannel(snapshot.RoomID), snapshotJSON)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (that *SnapshotMirror) GetByID(ctx context.Context, roomID string) (*entity.Snapshot, error) {
	response, err := that.client.Get(ctx, SnapshotKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

func (that *SnapshotMirror) DeleteByID(ctx context.Context, roomID string) error {
	if err := that.client.Del(ctx, SnapshotKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}
