package service

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

var errBrokenPipe = errors.New("broken pipe")

const testBotDelay = 20 * time.Millisecond

// testConn records every snapshot it receives.
type testConn struct {
	mu        sync.Mutex
	snapshots []*entity.Snapshot
	closed    bool
}

func (that *testConn) Send(snapshot *entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.snapshots = append(that.snapshots, snapshot)

	return nil
}

func (that *testConn) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	return nil
}

func (that *testConn) Count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.snapshots)
}

func (that *testConn) Last() *entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.snapshots) == 0 {
		return nil
	}

	return that.snapshots[len(that.snapshots)-1]
}

func (that *testConn) IsClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}

type mockConn struct {
	mock.Mock
}

func (that *mockConn) Send(snapshot *entity.Snapshot) error {
	args := that.Called(snapshot)
	return args.Error(0)
}

func (that *mockConn) Close() error {
	args := that.Called()
	return args.Error(0)
}

type testEnv struct {
	manager  *SessionManager
	rooms    repository.RoomRepository
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rooms := repository.NewRoomRepository(repository.DefaultRoomIDLength)
	registry := prometheus.NewRegistry()
	stats := metrics.New(registry)

	manager := NewSessionManager(
		logger,
		rooms,
		NewBroadcastService(logger, nil, stats),
		NewBotService(),
		stats,
		Options{BotDelay: testBotDelay, MaxSize: 8},
	)

	t.Cleanup(manager.Wait)

	return &testEnv{
		manager:  manager,
		rooms:    rooms,
		registry: registry,
	}
}

func (that *testEnv) createRoom(t *testing.T, size int, mode string) string {
	t.Helper()

	roomID, err := that.manager.CreateRoom(size, mode)
	require.NoError(t, err)

	return roomID
}

func (that *testEnv) join(t *testing.T, roomID, participantID, role, prefer string) *testConn {
	t.Helper()

	conn := &testConn{}
	require.NoError(t, that.manager.Join(roomID, participantID, role, prefer, conn))

	return conn
}

func (that *testEnv) snapshot(t *testing.T, roomID string) *entity.Snapshot {
	t.Helper()

	snapshot, err := that.manager.Snapshot(roomID)
	require.NoError(t, err)

	return snapshot
}

// startPvP creates a 3x3 pvp room with alice as X and bob as O.
func (that *testEnv) startPvP(t *testing.T) (string, *testConn, *testConn) {
	t.Helper()

	roomID := that.createRoom(t, 3, entity.ModePvP)
	alice := that.join(t, roomID, "alice", RolePlayer, "")
	bob := that.join(t, roomID, "bob", RolePlayer, "")

	return roomID, alice, bob
}
