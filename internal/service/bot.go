package service

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const DefaultBotDelay = 500 * time.Millisecond

var ErrNoAvailableMoves = errors.New("no available moves")

type BotService interface {
	MakeTurn(room *entity.Room) error
}

type botService struct {
	pick func(n int) int
}

func NewBotService() BotService {
	return &botService{
		pick: rand.Intn, //nolint: gosec // it's ok
	}
}

// MakeTurn places the bot symbol on a uniformly chosen empty cell.
func (that *botService) MakeTurn(room *entity.Room) error {
	availableCells := room.EmptyCells()
	if len(availableCells) == 0 {
		return ErrNoAvailableMoves
	}

	chosenCell := availableCells[that.pick(len(availableCells))]

	if err := tictactoe.MakeTurn(room, entity.BotSymbol, chosenCell); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	return nil
}

// maybeScheduleBotTurn hands the turn to the bot when a pvc room waits on it.
// Callers must hold the room lock.
func (that *SessionManager) maybeScheduleBotTurn(room *entity.Room) {
	if room.IsWithBot() && room.IsPlaying() && room.Turn == entity.BotSymbol {
		that.scheduleBotTurn(room.ID)
	}
}

// scheduleBotTurn runs MakeBotTurn once the thinking delay has passed.
// The task is never canceled, the wake-time guard makes stale runs no-ops.
func (that *SessionManager) scheduleBotTurn(roomID string) {
	that.botTasks.Add(1)

	time.AfterFunc(that.botDelay, func() {
		defer that.botTasks.Done()
		that.MakeBotTurn(roomID)
	})
}

// MakeBotTurn plays the automated opponent's move if the room still exists,
// is playing and is waiting on the bot symbol.
func (that *SessionManager) MakeBotTurn(roomID string) bool {
	log := that.logger.With("method", "MakeBotTurn", "roomID", roomID)

	room, err := that.rooms.GetByID(roomID)
	if err != nil {
		that.metrics.BotMoveAborted()
		log.Debug("room is gone, skipping bot turn")
		return false
	}

	room.Lock()
	defer room.Unlock()

	if room.IsClosed() || !room.IsWithBot() || !room.IsPlaying() || room.Turn != entity.BotSymbol {
		that.metrics.BotMoveAborted()
		log.Debug("bot turn is stale", "status", room.Status, "turn", room.Turn)
		return false
	}

	if err = that.bot.MakeTurn(room); err != nil {
		that.metrics.BotMoveAborted()
		log.Error("bot failed to make turn", "error", err)
		return false
	}

	that.metrics.MoveApplied(metrics.MoverBot)
	that.broadcast.Broadcast(room)

	return true
}

// Wait blocks until every scheduled bot turn has run.
func (that *SessionManager) Wait() {
	that.botTasks.Wait()
}
